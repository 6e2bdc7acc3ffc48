package packager

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/owl-installer/internal/config"
	"github.com/oshokin/owl-installer/internal/logger"
	"github.com/oshokin/owl-installer/internal/service/updater"
)

// errNoArtifacts indicates that the release folder holds nothing to publish.
var errNoArtifacts = errors.New("no opi artifacts found")

// Options contains inputs for the packager entry point.
type Options struct {
	// Folder holds the release artifacts; the description is written there too.
	Folder string
	// Version overrides the version written to the description.
	Version string
	// Out receives the list of published files.
	Out io.Writer
}

// packager prepares update metadata for distribution.
type packager struct {
	// folder is the release folder.
	folder string
	// desc is the description being built.
	desc *updater.Description
	// out receives the summary.
	out io.Writer
}

// Run hashes the release folder and writes its description.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "opi-packager")

	info, err := os.Stat(opts.Folder)
	if err != nil {
		return fmt.Errorf("release folder: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("release folder %s: %w", opts.Folder, os.ErrInvalid)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	pkg := &packager{
		folder: opts.Folder,
		desc:   updater.NewDescription(),
		out:    out,
	}

	if opts.Version != "" {
		pkg.desc.VersionNumber = opts.Version
	}

	if err = pkg.run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

func (p *packager) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Preparing update description", "folder", p.folder)

	if err := p.fillDescription(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saving update description", "path", updater.VersionFilename)

	if err := p.saveDescription(); err != nil {
		return err
	}

	p.printNextSteps()

	return nil
}

// fillDescription hashes every regular file of the folder except the description itself.
func (p *packager) fillDescription() error {
	entries, err := os.ReadDir(p.folder)
	if err != nil {
		return fmt.Errorf("read release folder: %w", err)
	}

	artifacts := 0

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || name == updater.VersionFilename {
			continue
		}

		checksum, checksumErr := updater.FileChecksum(filepath.Join(p.folder, name))
		if checksumErr != nil {
			return fmt.Errorf("hash %s: %w", name, checksumErr)
		}

		p.desc.Files[name] = base64.StdEncoding.EncodeToString(checksum)

		if strings.HasPrefix(name, "opi-") {
			artifacts++
		}
	}

	if artifacts == 0 {
		return fmt.Errorf("%s: %w", p.folder, errNoArtifacts)
	}

	return nil
}

// saveDescription writes the description into the folder.
func (p *packager) saveDescription() error {
	contents, err := yaml.Marshal(p.desc)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(p.folder, updater.VersionFilename), contents, config.DefaultFilePermissions)
}

// printNextSteps lists the files to publish.
func (p *packager) printNextSteps() {
	files := make([]string, 0, len(p.desc.Files)+1)
	for fileName := range p.desc.Files {
		files = append(files, fileName)
	}

	files = append(files, updater.VersionFilename)
	sort.Strings(files)

	var builder strings.Builder

	builder.WriteString("Release ")
	builder.WriteString(p.desc.VersionNumber)
	builder.WriteString(" is ready. Publish the following files under update_url:\n")

	for _, name := range files {
		builder.WriteString("  ")
		builder.WriteString(name)
		builder.WriteString("\n")
	}

	_, _ = io.WriteString(p.out, builder.String())
}
