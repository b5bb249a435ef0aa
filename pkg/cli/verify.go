package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/obinexuscomputing/fork/pkg/cli/config"
	"github.com/obinexuscomputing/fork/pkg/domain/model"
	"github.com/obinexuscomputing/fork/pkg/domain/types"
	"github.com/obinexuscomputing/fork/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// ErrInvalidSignature is returned by verify for a summary that does not
// match the secret
var ErrInvalidSignature = goerr.New("summary signature is invalid")

func cmdVerify() *cli.Command {
	var (
		summaryPath string
		signingCfg  config.Signing
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "summary",
			Usage:       "Summary JSON file written by the run command",
			Required:    true,
			Destination: &summaryPath,
		},
	}, signingCfg.Flags()...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check the signature of a run summary",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			secret := signingCfg.Key()
			if secret == nil {
				return goerr.New("signing secret is required (--signing-secret or HMAC_SECRET)", goerr.T(types.ErrTagConfig))
			}

			data, err := os.ReadFile(summaryPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read summary", goerr.V("path", summaryPath), goerr.T(types.ErrTagConfig))
			}
			var summary model.OperationSummary
			if err := json.Unmarshal(data, &summary); err != nil {
				return goerr.Wrap(err, "failed to parse summary", goerr.V("path", summaryPath), goerr.T(types.ErrTagConfig))
			}

			ok, err := usecase.NewSigner().Verify(&summary, secret)
			if err != nil {
				return err
			}
			if !ok {
				return goerr.Wrap(ErrInvalidSignature, "verification failed", goerr.V("run_id", summary.RunID))
			}

			logger.Info("Summary signature is valid", "run_id", summary.RunID)
			fmt.Fprintf(c.Root().Writer, "OK %s\n", summary.RunID)
			return nil
		},
	}
}
