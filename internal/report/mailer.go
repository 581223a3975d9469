package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/kpx/product-tracker/internal/config"
	"github.com/kpx/product-tracker/internal/database"
	"github.com/kpx/product-tracker/internal/models"
)

// Mailer delivers the price-drop summary for the most recent report.
type Mailer struct {
	db             *database.DB
	cfg            config.MailConfig
	productURLBase string
	logger         *slog.Logger
}

func NewMailer(db *database.DB, cfg config.MailConfig, productURLBase string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		db:             db,
		cfg:            cfg,
		productURLBase: productURLBase,
		logger:         logger.With("component", "mailer"),
	}
}

// SendLatest mails the products whose latest reading undercuts their
// historical average. With no report committed yet, or no drops to show,
// nothing is sent.
func (m *Mailer) SendLatest(ctx context.Context) error {
	latest, err := m.db.LatestReport(ctx)
	if err != nil {
		return err
	}
	if latest == nil {
		m.logger.Info("no report to mail yet")
		return nil
	}

	pricing, err := m.db.ProductPricing(ctx, latest.ID)
	if err != nil {
		return err
	}

	drops := PriceDrops(pricing)
	if len(drops) == 0 {
		m.logger.Info("no price drops to report", "report_id", latest.ID)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", fmt.Sprintf("Product Update - %s", latest.ID))
	msg.SetBody("text/plain", renderBody(drops, m.productURLBase))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send report mail: %w", err)
	}

	m.logger.Info("report mail sent", "report_id", latest.ID, "drops", len(drops))
	return nil
}

// PriceDrops filters a report's readings down to real drops: a usable
// current price strictly below the product's historical average. Sentinel
// readings stay in the database but never reach the mail.
func PriceDrops(pricing []models.ProductPricing) []models.ProductPricing {
	var drops []models.ProductPricing
	for _, p := range pricing {
		if p.CurrentPrice < 0 || p.AveragePrice <= 0 {
			continue
		}
		if p.CurrentPrice < p.AveragePrice {
			drops = append(drops, p)
		}
	}
	return drops
}

func renderBody(drops []models.ProductPricing, productURLBase string) string {
	var b strings.Builder

	b.WriteString("Hi,\n\nHere are today's price drops:\n\n")
	for _, p := range drops {
		fmt.Fprintf(&b, "\t- %s: $%.2f (avg $%.2f) %s%s\n",
			p.Name, p.CurrentPrice, p.AveragePrice, productURLBase, p.ProductID)
	}
	b.WriteString("\nBest,\nProduct Tracker\n")

	return b.String()
}
