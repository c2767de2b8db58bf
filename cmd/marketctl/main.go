package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	client *client
	w      io.Writer
	e      io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "dev"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "marketctl"
	app.Usage = "marketplace ledger client"
	app.Version = version

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "server, s",
			Value:  "http://localhost:8080",
			Usage:  " marketplace HTTP API `URL`",
			EnvVar: "MARKET_SERVER",
		},
		cli.StringFlag{
			Name:   "key, k",
			Value:  "",
			Usage:  " signer private `KEY` (base58)",
			EnvVar: "MARKET_KEY",
		},
	}

	idFlag := cli.Uint64Flag{
		Name:  "id",
		Usage: "*item `ID`",
	}
	quantityFlag := cli.Uint64Flag{
		Name:  "quantity, q",
		Usage: "*item `QUANTITY`",
	}
	ownerFlag := cli.StringFlag{
		Name:  "owner, o",
		Value: "",
		Usage: "*wallet owner `IDENTITY`",
	}

	app.Commands = []cli.Command{
		{
			Name:   "keygen",
			Usage:  "generate a signer key pair",
			Action: runKeygen,
		},
		{
			Name:   "list",
			Usage:  "list all items",
			Action: runList,
		},
		{
			Name:      "show",
			Usage:     "show one item and its receipts",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{idFlag},
			Action:    runShow,
		},
		{
			Name:      "create",
			Usage:     "create an item owned by the signer",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				idFlag,
				cli.StringFlag{
					Name:  "name, n",
					Value: "",
					Usage: "*item `NAME`",
				},
				quantityFlag,
				cli.Uint64Flag{
					Name:  "price, p",
					Usage: "*unit `PRICE`",
				},
			},
			Action: runCreate,
		},
		{
			Name:      "update",
			Usage:     "replace the quantity of an item",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{idFlag, quantityFlag},
			Action:    runUpdate,
		},
		{
			Name:      "purchase",
			Usage:     "buy from an item, paying its authority",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				idFlag,
				quantityFlag,
				cli.StringFlag{
					Name:  "seller",
					Value: "",
					Usage: " payment destination `IDENTITY` [default: item authority]",
				},
				cli.StringFlag{
					Name:  "request-id, r",
					Value: "",
					Usage: " idempotency `ID` [default: random]",
				},
			},
			Action: runPurchase,
		},
		{
			Name:      "delete",
			Usage:     "delete an item",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{idFlag},
			Action:    runDelete,
		},
		{
			Name:      "deposit",
			Usage:     "credit a wallet (faucet)",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				ownerFlag,
				cli.Uint64Flag{
					Name:  "amount, a",
					Usage: "*`AMOUNT` to credit",
				},
			},
			Action: runDeposit,
		},
		{
			Name:      "balance",
			Usage:     "show a wallet balance",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{ownerFlag},
			Action:    runBalance,
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata = map[string]interface{}{
			"config": &metadata{
				client: newClient(c.GlobalString("server"), c.GlobalString("key")),
				w:      c.App.Writer,
				e:      c.App.ErrWriter,
			},
		}
		return nil
	}

	return app
}
