// extfsctl is a command-line front end over the extfs engine: format an
// image file, then run one-shot subcommands or an interactive shell
// against it.
//
// Grounded on cmd/main.go's urfave/cli/v2 App + Command table.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/extfs-project/extfs"
	"github.com/extfs-project/extfs/internal/geometry"
	"github.com/extfs-project/extfs/utilities/compression"
)

func main() {
	app := cli.App{
		Usage: "Manage extfs disk images",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create or wipe an image file",
				ArgsUsage: "IMAGE_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Value: "default", Usage: "geometry preset: default, tiny, large"},
					&cli.StringFlag{Name: "label", Value: "", Usage: "volume label"},
				},
				Action: formatImage,
			},
			{
				Name:      "shell",
				Usage:     "Open an interactive session against an image file",
				ArgsUsage: "IMAGE_FILE",
				Action:    runShell,
			},
			{
				Name:      "fsck",
				Usage:     "Run a read-only consistency check against an image file",
				ArgsUsage: "IMAGE_FILE",
				Action:    runFsck,
			},
			{
				Name:      "export",
				Usage:     "Compress an image file for archival (RLE8 + gzip)",
				ArgsUsage: "IMAGE_FILE ARCHIVE_FILE",
				Action:    exportImage,
			},
			{
				Name:      "import",
				Usage:     "Decompress an archived image file back to raw form",
				ArgsUsage: "ARCHIVE_FILE IMAGE_FILE",
				Action:    importImage,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func formatImage(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: IMAGE_FILE")
	}

	geom, err := geometry.Preset(ctx.String("preset"))
	if err != nil {
		return err
	}
	geom.VolumeName = ctx.String("label")

	f, err := os.Create(ctx.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Truncate(int64(geom.BlockSize) * int64(geom.BlocksCount)); err != nil {
		return err
	}

	if err := extfs.Format(f, geom); err != nil {
		return err
	}
	fmt.Printf("formatted %s: %s preset, %d blocks, %d inodes\n",
		ctx.Args().First(), ctx.String("preset"), geom.BlocksCount, geom.InodesCount)
	return nil
}

func runFsck(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: IMAGE_FILE")
	}
	f, err := os.OpenFile(ctx.Args().First(), os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	session, err := extfs.Open(f)
	if err != nil {
		return err
	}
	report, err := session.CheckConsistency()
	if err != nil {
		return err
	}
	if report.OK() {
		fmt.Println("no problems found")
		return nil
	}
	for _, p := range report.Problems {
		fmt.Printf("[%s] %s\n", p.Code, p.Message)
	}
	return fmt.Errorf("%d problem(s) found", len(report.Problems))
}

func exportImage(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("expected two arguments: IMAGE_FILE ARCHIVE_FILE")
	}
	src, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := compression.CompressImage(src, dst)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d compressed bytes to %s\n", written, ctx.Args().Get(1))
	return nil
}

func importImage(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return fmt.Errorf("expected two arguments: ARCHIVE_FILE IMAGE_FILE")
	}
	src, err := os.Open(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := compression.DecompressImage(src, dst)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d decompressed bytes to %s\n", written, ctx.Args().Get(1))
	return nil
}

func runShell(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument: IMAGE_FILE")
	}
	f, err := os.OpenFile(ctx.Args().First(), os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	return runShellLoop(f, os.Stdin, os.Stdout)
}
