// Package printing renders collection receipts
package printing

import (
	"context"
	"fmt"
	"strings"

	"github.com/cobranzas/backend/internal/domain/finance"
	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/partner"
	"github.com/cobranzas/backend/internal/domain/printing"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/domain/trade"
	infra "github.com/cobranzas/backend/internal/infrastructure/printing"
	"github.com/cobranzas/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HTMLRenderer lays a receipt out as an HTML document
type HTMLRenderer interface {
	RenderReceipt(receipt *printing.Receipt, paper printing.PaperSize) (string, error)
}

// ArchiveStorage keeps a copy of rendered receipts
type ArchiveStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Config holds receipt settings
type Config struct {
	CompanyName     string
	PaperSize       printing.PaperSize
	ArchiveReceipts bool
}

// ReceiptService renders collection receipts
type ReceiptService struct {
	collectionRepo finance.CollectionRepository
	saleRepo       trade.SaleRepository
	customerRepo   partner.CustomerRepository
	userRepo       identity.UserRepository
	html           HTMLRenderer
	pdf            infra.PDFRenderer
	archive        ArchiveStorage
	config         Config
	logger         *zap.Logger
}

// NewReceiptService creates a new ReceiptService. A nil pdf renderer serves
// every receipt as HTML.
func NewReceiptService(
	collectionRepo finance.CollectionRepository,
	saleRepo trade.SaleRepository,
	customerRepo partner.CustomerRepository,
	userRepo identity.UserRepository,
	html HTMLRenderer,
	pdf infra.PDFRenderer,
	config Config,
	logger *zap.Logger,
) *ReceiptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !config.PaperSize.IsValid() {
		config.PaperSize = printing.PaperSizeA5
	}
	return &ReceiptService{
		collectionRepo: collectionRepo,
		saleRepo:       saleRepo,
		customerRepo:   customerRepo,
		userRepo:       userRepo,
		html:           html,
		pdf:            pdf,
		config:         config,
		logger:         logger,
	}
}

// SetArchive sets the storage receipts are archived to
func (s *ReceiptService) SetArchive(archive ArchiveStorage) {
	s.archive = archive
}

// PDFEnabled reports whether receipts can be rendered as PDF
func (s *ReceiptService) PDFEnabled() bool {
	return s.pdf != nil
}

// Render renders the receipt of a collection. Admins can print any receipt,
// collectors only their own. An empty format means PDF, falling back to
// HTML when no PDF renderer is configured.
func (s *ReceiptService) Render(ctx context.Context, actor identity.Actor, collectionID uuid.UUID, format string) (*ReceiptDocument, error) {
	switch format {
	case "":
		format = FormatPDF
	case FormatPDF, FormatHTML:
	default:
		return nil, shared.NewValidationError("Unsupported receipt format: " + format)
	}

	collection, err := s.collectionRepo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if !finance.CanViewCollection(actor, collection.CollectorID) {
		return nil, shared.NewPermissionError("Not allowed to print this collection")
	}

	var doc *ReceiptDocument
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationRenderReceipt, nil), func(c context.Context) {
		doc, err = s.render(c, collection, format)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Receipt rendered",
		zap.String("collection_id", collection.ID.String()),
		zap.String("format", doc.Format),
		zap.Int("bytes", len(doc.Data)),
	)
	return doc, nil
}

func (s *ReceiptService) render(ctx context.Context, collection *finance.Collection, format string) (*ReceiptDocument, error) {
	receipt, err := s.BuildReceipt(ctx, collection)
	if err != nil {
		return nil, err
	}

	html, err := s.html.RenderReceipt(receipt, s.config.PaperSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}

	name := "recibo_" + receipt.Number
	if format == FormatHTML || s.pdf == nil {
		return &ReceiptDocument{
			Filename:    name + ".html",
			ContentType: HTMLContentType,
			Format:      FormatHTML,
			Data:        []byte(html),
		}, nil
	}

	var result *infra.RenderResult
	telemetry.WithProfilingLabels(ctx, telemetry.RegionLabels("pdf_render", nil), func(c context.Context) {
		result, err = s.pdf.Render(c, &infra.RenderRequest{
			HTML:        html,
			PaperSize:   s.config.PaperSize,
			Orientation: printing.OrientationPortrait,
			Margins:     printing.MarginsFor(s.config.PaperSize),
			Title:       "Recibo " + receipt.Number,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt PDF: %w", err)
	}

	doc := &ReceiptDocument{
		Filename:    name + ".pdf",
		ContentType: PDFContentType,
		Format:      FormatPDF,
		Data:        result.PDFData,
	}
	if s.config.ArchiveReceipts && s.archive != nil {
		key := fmt.Sprintf("receipts/%s/%s.pdf", collection.CollectedAt.UTC().Format("2006/01"), collection.ID)
		if err := s.archive.Upload(ctx, key, doc.Data, PDFContentType); err != nil {
			s.logger.Warn("Failed to archive receipt",
				zap.String("collection_id", collection.ID.String()),
				zap.Error(err),
			)
		} else {
			doc.ArchiveKey = key
		}
	}
	return doc, nil
}

// BuildReceipt assembles the printable receipt of a collection: the
// collector, the customer, one line per application and the customer's
// remaining debt.
func (s *ReceiptService) BuildReceipt(ctx context.Context, collection *finance.Collection) (*printing.Receipt, error) {
	customer, err := s.customerRepo.FindByID(ctx, collection.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}

	collectorName := ""
	collector, err := s.userRepo.FindByID(ctx, collection.CollectorID)
	switch {
	case err == nil:
		collectorName = collector.DisplayName()
	case shared.IsNotFound(err):
		s.logger.Warn("Receipt collector not found", zap.String("collector_id", collection.CollectorID.String()))
	default:
		return nil, fmt.Errorf("failed to load collector: %w", err)
	}

	sales, err := s.saleRepo.FindByCustomer(ctx, collection.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	salesByID := make(map[uuid.UUID]*trade.Sale, len(sales))
	pending := decimal.Zero
	for i := range sales {
		salesByID[sales[i].ID] = &sales[i]
		if !sales[i].Uncollectible {
			pending = pending.Add(sales[i].PendingBalance())
		}
	}

	receipt := &printing.Receipt{
		CollectionID:    collection.ID,
		Number:          printing.ReceiptNumber(collection.ID),
		CompanyName:     s.config.CompanyName,
		CollectedAt:     collection.CollectedAt,
		CollectorName:   collectorName,
		CustomerName:    customer.Name,
		CustomerAddress: customer.Address,
		CustomerCity:    customer.City,
		Lines:           make([]printing.ReceiptLine, 0, len(collection.Applications)),
		Total:           collection.TotalAmount(),
		PendingBalance:  pending,
		Delivered:       collection.Delivered,
	}
	for _, app := range collection.Applications {
		line := printing.ReceiptLine{Ordinal: app.Ordinal, Amount: app.Amount}
		if sale, ok := salesByID[app.SaleID]; ok {
			line.SaleDate = sale.SaleDate
			line.InstallmentCount = sale.InstallmentCount
			line.Products = productNames(sale)
			if inst := sale.Installment(app.InstallmentID); inst != nil {
				line.Remaining = inst.RemainingAmount()
			}
		}
		receipt.Lines = append(receipt.Lines, line)
	}
	return receipt, nil
}

func productNames(sale *trade.Sale) string {
	names := make([]string, 0, len(sale.Items))
	for _, item := range sale.Items {
		names = append(names, item.ProductName)
	}
	return strings.Join(names, ", ")
}
