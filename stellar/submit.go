package stellar

import (
	"context"

	"github.com/fundlift/custody/internal/client"
)

// submit sends a signed envelope to the network and classifies the
// synchronous outcome:
//
//   - accepted: the hash is returned; the transaction is still pending
//     from the application's view until the monitor confirms it.
//   - rejected by validation (client.RejectedError): permanent. Blindly
//     resubmitting the same envelope wastes the consumed sequence number,
//     and resubmitting with a new sequence can duplicate intent if the
//     original eventually lands. Only tx_bad_seq is worth a rebuild.
//   - transient network failure: nothing was committed; a retry with a
//     freshly fetched sequence number is safe.
func (s *Service) submit(ctx context.Context, signed *signedTransaction) (*client.SubmitResult, error) {
	result, err := s.horizon.SubmitXDR(ctx, signed.EnvelopeXDR)
	if err != nil {
		if rej, ok := client.AsRejected(err); ok {
			s.log.Warn().
				Str("hash", signed.Hash).
				Str("result_code", rej.TransactionCode).
				Strs("operation_codes", rej.OperationCodes).
				Msg("transaction rejected by validation")
		}
		return nil, err
	}
	return result, nil
}
