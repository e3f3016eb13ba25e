package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/dampbn"
	"github.com/bodgit/dampbn/metadata"
	"github.com/bodgit/dampbn/pic"
	"github.com/urfave/cli/v2"
)

const defaultDB = "dampbn.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadMetadata(c *cli.Context, db *dampbn.CatalogDB) (*metadata.Table, error) {
	if file := c.String("metadata"); file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return metadata.ParseCSV(f)
	}
	return db.Metadata()
}

func options(c *cli.Context) (pic.Options, error) {
	compression, err := pic.ParseCompression(c.String("compression"))
	if err != nil {
		return pic.Options{}, err
	}

	quantizer, err := pic.ParseQuantizer(c.String("quantizer"))
	if err != nil {
		return pic.Options{}, err
	}

	return pic.Options{
		Compression:  compression,
		Transparency: c.Bool("transparency"),
		Strict:       c.Bool("strict"),
		Quantizer:    quantizer,
		Debug:        c.Bool("debug"),
	}, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "dampbn"
	app.Usage = "DamPBN picture conversion utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"DAMPBN_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "import",
			Usage:       "Import picture names and categories from CSV",
			Description: "Each line of the CSV file is the source filename, the displayed name and the category number.",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				db, err := dampbn.NewCatalogDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				n, err := db.ImportCSV(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				logger.Printf("Imported %d records\n", n)

				return nil
			},
		},
		{
			Name:        "convert",
			Usage:       "Convert a directory of images to pictures",
			Description: "Images larger than 320x200 are scaled down and reduced to 64 colors.",
			ArgsUsage:   "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "compression",
					Value: pic.SmallerOf.String(),
					Usage: "pixel compression; raw, rle or smaller",
				},
				&cli.BoolFlag{
					Name:  "transparency",
					Usage: "keep the alpha channel as a mask",
				},
				&cli.BoolFlag{
					Name:  "strict",
					Usage: "skip images larger than 320x200 instead of resizing",
				},
				&cli.StringFlag{
					Name:  "quantizer",
					Value: pic.MedianCut.String(),
					Usage: "color quantizer; mediancut or nodither",
				},
				&cli.StringFlag{
					Name:  "metadata",
					Usage: "read names and categories from CSV `FILE` instead of the database",
				},
				&cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "number of images to convert concurrently",
				},
				&cli.BoolFlag{
					Name:  "debug",
					Usage: "write a PNG preview of each picture",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, err := options(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				logger := newLogger(c)

				db, err := dampbn.NewCatalogDB(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				table, err := loadMetadata(c, db)
				if err != nil {
					return cli.Exit(err, 1)
				}

				d := dampbn.New(db, logger)

				report, err := d.Convert(c.Args().Get(0), c.Args().Get(1), table, o, c.Int("workers"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				for _, s := range report.Skipped {
					fmt.Fprintf(os.Stderr, "%s: %v\n", s.File, s.Err)
				}

				logger.Printf("Converted %d pictures (%d cached), skipped %d\n", report.Converted, report.Cached, len(report.Skipped))

				if len(report.Skipped) > 0 {
					return cli.Exit("", 2)
				}

				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "Show the header of a picture",
			ArgsUsage: "FILE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				for _, file := range c.Args().Slice() {
					if err := info(file); err != nil {
						return cli.Exit(err, 1)
					}
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func info(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := pic.DecodeAsset(f)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	fmt.Printf("%s: \"%s\" category %d, %dx%d, %d colors, compressed %t", file, a.DisplayName(), a.Category, a.Width, a.Height, a.Colors, a.Compressed)
	if a.Transparent() {
		fmt.Printf(", %d playable pixels", a.Mask.Playable())
	}
	fmt.Println()

	return nil
}
