// Re-encrypts every stored secret key under a new master key. Run with
// the daemon stopped; the store cannot be opened by two processes.
// Usage:
//
//	CUSTODY_OLD_MASTER_KEY=... CUSTODY_NEW_MASTER_KEY=... rotate-master-key [-data ./data]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
	"github.com/fundlift/custody/internal/vault"
)

func main() {
	dataDir := flag.String("data", "./data", "store directory")
	flag.Parse()

	oldKey := os.Getenv("CUSTODY_OLD_MASTER_KEY")
	newKey := os.Getenv("CUSTODY_NEW_MASTER_KEY")
	if oldKey == "" || newKey == "" {
		fmt.Fprintln(os.Stderr, "CUSTODY_OLD_MASTER_KEY and CUSTODY_NEW_MASTER_KEY must be set")
		os.Exit(1)
	}

	oldVault, err := vault.New([]byte(oldKey))
	if err != nil {
		fmt.Fprintln(os.Stderr, "old master key:", err)
		os.Exit(1)
	}
	newVault, err := vault.New([]byte(newKey))
	if err != nil {
		fmt.Fprintln(os.Stderr, "new master key:", err)
		os.Exit(1)
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	defer st.Close()

	rotated := 0
	err = st.EachUser(func(u *model.User) error {
		if u.StellarSecretKeyEncrypted == "" {
			return nil
		}
		seed, err := oldVault.Decrypt(u.StellarSecretKeyEncrypted)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		defer clear(seed)

		reencrypted, err := newVault.Encrypt(seed)
		if err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		u.StellarSecretKeyEncrypted = reencrypted
		if err := st.UpdateUser(u); err != nil {
			return fmt.Errorf("user %s: %w", u.ID, err)
		}
		rotated++
		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "rotation aborted:", err)
		os.Exit(1)
	}

	fmt.Printf("re-encrypted %d secret keys\n", rotated)
}
