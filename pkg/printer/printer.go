package printer

import (
	"context"
	"errors"
	"fmt"

	"github.com/benmeehan/trailprint/pkg/file"
	"github.com/phin1x/go-ipp"
	"github.com/rs/zerolog"
)

const (
	// DefaultJobName is the title shown in the printer queue.
	DefaultJobName = "CassiePrint"
	// sidesLongEdge prints duplex, flipping on the long edge.
	sidesLongEdge = "two-sided-long-edge"
)

// ErrEmptyDocument is returned when printing is requested for an empty buffer.
var ErrEmptyDocument = errors.New("print called with an empty document")

// Printer prints PDF documents.
type Printer interface {
	Print(ctx context.Context, doc []byte) error
}

// JobSubmitter submits a file to a printer queue. It is satisfied by *ipp.CUPSClient.
type JobSubmitter interface {
	PrintFile(filePath, printer string, jobAttributes map[string]interface{}) (int, error)
}

// Config holds the CUPS connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Name     string // Printer queue name
	JobName  string
	TempDir  string // Where the spool copy is written; empty means the OS default
}

// CUPSPrinter prints through a CUPS server using IPP.
type CUPSPrinter struct {
	cfg        Config
	client     JobSubmitter
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewCUPSPrinter creates a printer for the queue named in cfg.
func NewCUPSPrinter(cfg Config, fileClient file.FileOperations, logger zerolog.Logger) *CUPSPrinter {
	client := ipp.NewCUPSClient(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.UseTLS)
	return NewCUPSPrinterWithClient(cfg, client, fileClient, logger)
}

// NewCUPSPrinterWithClient creates a printer using an existing job submitter.
func NewCUPSPrinterWithClient(cfg Config, client JobSubmitter, fileClient file.FileOperations, logger zerolog.Logger) *CUPSPrinter {
	if cfg.JobName == "" {
		cfg.JobName = DefaultJobName
	}
	return &CUPSPrinter{
		cfg:        cfg,
		client:     client,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Print spools doc to a temporary file and submits it as a duplex job.
func (p *CUPSPrinter) Print(ctx context.Context, doc []byte) error {
	if len(doc) == 0 {
		p.logger.Error().Str("printer", p.cfg.Name).Msg("Print called with empty buffer")
		return ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := p.fileClient.WriteTempFile(p.cfg.TempDir, "trailprint-*.pdf", doc)
	if err != nil {
		return fmt.Errorf("failed to spool document: %w", err)
	}
	defer func() {
		if err := p.fileClient.Remove(path); err != nil {
			p.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove spool file")
		}
	}()

	jobID, err := p.client.PrintFile(path, p.cfg.Name, map[string]interface{}{
		ipp.AttributeJobName: p.cfg.JobName,
		"sides":              sidesLongEdge,
	})
	if err != nil {
		return fmt.Errorf("failed to print on %s: %w", p.cfg.Name, err)
	}

	p.logger.Info().
		Str("printer", p.cfg.Name).
		Int("job_id", jobID).
		Int("bytes", len(doc)).
		Msg("Printed document")
	return nil
}
