// gamesctl is the operator tool for the default games configuration: it
// edits and saves the on-ledger settings record and publishes Terms &
// Conditions documents through the content store.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/cubist-collective/cubist-games-go/bundlr"
	"github.com/cubist-collective/cubist-games-go/engine"
	"github.com/cubist-collective/cubist-games-go/funding"
	"github.com/cubist-collective/cubist-games-go/ledger"
	"github.com/cubist-collective/cubist-games-go/oracle"
	"github.com/cubist-collective/cubist-games-go/pda"
	"github.com/cubist-collective/cubist-games-go/settings"
	"github.com/cubist-collective/cubist-games-go/statestore"
)

func main() {
	// Best effort: flags and real env still win over .env entries.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gamesctl",
		Usage: "manage the default games configuration and its terms documents",
		Flags: appFlags,
		Before: func(c *cli.Context) error {
			level, err := logrus.ParseLevel(c.String(verbosityFlag.Name))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetFormatter(&nested.Formatter{
				HideKeys:        true,
				FieldsOrder:     []string{"prefix"},
				TimestampFormat: "2006-01-02 15:04:05",
			})
			if path := c.String(logFileFlag.Name); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				logrus.SetOutput(io.MultiWriter(os.Stderr, f))
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "inspect and save the configuration record",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "print the current record, local edits included",
						Action: runConfigShow,
					},
					{
						Name:  "save",
						Usage: "apply --set edits and submit the record to the ledger",
						Flags: []cli.Flag{
							&cli.StringSliceFlag{
								Name:  "set",
								Usage: "field=value edit, repeatable (e.g. --set fee=5)",
							},
						},
						Action: runConfigSave,
					},
				},
			},
			{
				Name:  "terms",
				Usage: "publish and inspect Terms & Conditions documents",
				Subcommands: []*cli.Command{
					{
						Name:  "publish",
						Usage: "upload a document body and submit its pointer",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Required: true},
							&cli.StringFlag{Name: "title"},
							&cli.StringFlag{Name: "description"},
							&cli.StringFlag{Name: "description-file"},
							&cli.BoolFlag{
								Name:  "auto-fund",
								Usage: "fund the recommended top-up when balance is short",
							},
						},
						Action: runTermsPublish,
					},
					{
						Name:   "show",
						Usage:  "fetch and print a published document",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "id", Required: true}},
						Action: runTermsShow,
					},
				},
			},
			{
				Name:   "balance",
				Usage:  "print the prepaid content store balance",
				Action: runBalance,
			},
			{
				Name:   "fund",
				Usage:  "top up the prepaid content store balance",
				Flags:  []cli.Flag{&cli.Float64Flag{Name: "amount", Required: true, Usage: "whole native tokens"}},
				Action: runFund,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// buildEngine wires the engine from flags. The returned closer releases the
// draft database.
func buildEngine(c *cli.Context) (*engine.Engine, bundlr.Store, func(), error) {
	programID, err := pda.ParsePublicKey(c.String(programIDFlag.Name))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("program-id: %w", err)
	}
	systemAuthority, err := pda.ParsePublicKey(c.String(systemAuthorityFlag.Name))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("system-authority: %w", err)
	}

	var signer ledger.Signer
	authority := pda.PublicKey{}
	if path := c.String(keypairFlag.Name); path != "" {
		local, err := loadSigner(path)
		if err != nil {
			return nil, nil, nil, err
		}
		signer = local
		authority = local.PublicKey()
	}
	if s := c.String(authorityFlag.Name); s != "" {
		if authority, err = pda.ParsePublicKey(s); err != nil {
			return nil, nil, nil, fmt.Errorf("authority: %w", err)
		}
	}

	rpc := ledger.NewRPCClient(ledger.RPCConfig{URL: c.String(rpcURLFlag.Name)})
	program := ledger.NewProgramClient(rpc, programID, signer)

	store := bundlr.NewClient(bundlr.ClientConfig{
		NodeURL:    c.String(bundlrNodeFlag.Name),
		GatewayURL: c.String(gatewayFlag.Name),
		Address:    authority.String(),
	})

	var operators []pda.PublicKey
	for _, s := range c.StringSlice(operatorFlag.Name) {
		op, err := pda.ParsePublicKey(s)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("operator: %w", err)
		}
		operators = append(operators, op)
	}

	drafts, err := statestore.Open(filepath.Join(c.String(dataDirFlag.Name), "drafts.db"))
	if err != nil {
		return nil, nil, nil, err
	}

	eng, err := engine.New(engine.Config{
		Authority: authority,
		Resolver:  pda.NewResolver(programID, systemAuthority),
		Program:   program,
		Store:     store,
		Oracle:    oracle.NewClient(c.String(oracleURLFlag.Name), "solana"),
		Drafts:    drafts,
		Operators: operators,
		Origin: settings.Origin{
			HTTPS: !c.Bool(noHTTPSFlag.Name),
			Host:  c.String(domainFlag.Name),
		},
	})
	if err != nil {
		_ = drafts.Close()
		return nil, nil, nil, err
	}
	if signer != nil && !eng.Authorized(signer.PublicKey()) {
		_ = drafts.Close()
		return nil, nil, nil, fmt.Errorf("%w: key %s", engine.ErrNotAuthorized, signer.PublicKey())
	}
	return eng, store, func() { _ = drafts.Close() }, nil
}

func runConfigShow(c *cli.Context) error {
	eng, _, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	session, err := eng.NewSettingsSession(c.Context)
	if err != nil {
		return err
	}
	defer session.Close()

	out := map[string]interface{}{
		"exists":   session.Exists(),
		"settings": session.Settings(),
	}
	if sys := session.SystemConfig(); sys != nil {
		out["systemConfig"] = sys
	}
	if stats := session.Stats(); stats != nil {
		out["stats"] = stats
	}
	return printJSON(out)
}

func runConfigSave(c *cli.Context) error {
	eng, _, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	session, err := eng.NewSettingsSession(c.Context)
	if err != nil {
		return err
	}
	defer session.Close()

	for _, edit := range c.StringSlice("set") {
		field, value, err := parseEdit(edit)
		if err != nil {
			return err
		}
		if err := session.Update(field, value); err != nil {
			return err
		}
	}

	sig, err := session.Save(c.Context)
	if err != nil {
		if perr, ok := ledger.AsProgramError(err); ok {
			return fmt.Errorf("program rejected the save: %s", perr.Message)
		}
		return err
	}
	fmt.Printf("configuration saved: %s\n", sig)
	return nil
}

func runTermsPublish(c *cli.Context) error {
	eng, _, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	parent, err := eng.NewSettingsSession(c.Context)
	if err != nil {
		return err
	}
	defer parent.Close()

	id := c.String("id")
	var session *engine.TermsSession
	if parent.Settings().HasTerms(id) {
		session, err = eng.EditTermsSession(c.Context, parent, id)
	} else {
		session, err = eng.NewTermsSession(parent)
		if err == nil {
			err = session.Update("id", id)
		}
	}
	if err != nil {
		return err
	}

	if title := c.String("title"); title != "" {
		if err := session.Update("title", title); err != nil {
			return err
		}
	}
	description := c.String("description")
	if path := c.String("description-file"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		description = string(raw)
	}
	if description != "" {
		if err := session.Update("description", description); err != nil {
			return err
		}
	}

	outcome, err := session.Publish(c.Context)
	if err != nil {
		if perr, ok := ledger.AsProgramError(err); ok {
			return fmt.Errorf("program rejected the publish: %s", perr.Message)
		}
		return err
	}
	if outcome.FundingRequired {
		q := outcome.Quote
		fmt.Printf("balance too low: need %d units, have %d (≈ $%.2f); recommended top-up %g\n",
			q.RequiredUnits, q.Balance, q.RequiredUSD, q.RecommendedTopUp)
		if !c.Bool("auto-fund") {
			return fmt.Errorf("fund the store and retry, or pass --auto-fund")
		}
		if err := session.Fund(c.Context, q.RecommendedTopUp); err != nil {
			return err
		}
		if outcome, err = session.Publish(c.Context); err != nil {
			return err
		}
		if outcome.FundingRequired {
			return fmt.Errorf("balance still insufficient after funding")
		}
	}

	action := "updated"
	if outcome.Created {
		action = "created"
	}
	fmt.Printf("terms %q %s: ref=%s signature=%s\n", id, action, outcome.ContentRef, outcome.Signature)
	return nil
}

func runTermsShow(c *cli.Context) error {
	eng, _, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	parent, err := eng.NewSettingsSession(c.Context)
	if err != nil {
		return err
	}
	defer parent.Close()

	session, err := eng.EditTermsSession(c.Context, parent, c.String("id"))
	if err != nil {
		return err
	}
	return printJSON(session.Draft())
}

func runBalance(c *cli.Context) error {
	eng, store, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	balance, err := store.Balance(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("prepaid balance: %d units (%g tokens)\n",
		balance, funding.UnitsToNative(balance, eng.Decimals()))
	return nil
}

func runFund(c *cli.Context) error {
	eng, store, closer, err := buildEngine(c)
	if err != nil {
		return err
	}
	defer closer()

	amount := c.Float64("amount")
	if err := store.Fund(c.Context, funding.NativeToUnits(amount, eng.Decimals())); err != nil {
		return err
	}
	fmt.Printf("funded %g tokens\n", amount)
	return nil
}

// parseEdit splits "field=value" and coerces the value: bools and numbers
// are recognized, anything else stays a string.
func parseEdit(edit string) (string, interface{}, error) {
	field, raw, ok := strings.Cut(edit, "=")
	if !ok {
		return "", nil, fmt.Errorf("--set expects field=value, got %q", edit)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return field, b, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return field, f, nil
	}
	return field, raw, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
