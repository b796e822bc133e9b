// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/order"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
)

// Service renders payment receipts
type Service struct {
	company  CompanyInfo
	currency string
	now      func() time.Time
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: CompanyInfo{
			Name:  cfg.App.CompanyName,
			Phone: cfg.App.CompanyPhone,
			Email: cfg.App.CompanyEmail,
		},
		currency: cfg.App.Currency,
		now:      time.Now,
	}
}

// ReceiptData is passed to the receipt template
type ReceiptData struct {
	ReceiptNumber string
	IssuedAt      string
	Currency      string
	Order         *order.Order
	Payment       payment.State
	MethodLabel   string
	Company       CompanyInfo
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name  string
	Phone string
	Email string
}

// NewReceiptData assembles the template data of a paid order
func (s *Service) NewReceiptData(o *order.Order, st payment.State) ReceiptData {
	return ReceiptData{
		ReceiptNumber: fmt.Sprintf("RCT-%s", o.OrderNumber),
		IssuedAt:      s.now().Format("January 2, 2006 15:04"),
		Currency:      s.currency,
		Order:         o,
		Payment:       st,
		MethodLabel:   methodLabel(st.Method),
		Company:       s.company,
	}
}

// GenerateReceiptHTML renders the receipt as HTML
func (s *Service) GenerateReceiptHTML(data ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateReceipt renders the receipt as a PDF. It needs the wkhtmltopdf
// binary on PATH or in WKHTMLTOPDF_PATH.
func (s *Service) GenerateReceipt(data ReceiptData) ([]byte, error) {
	htmlContent, err := s.GenerateReceiptHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterFontSize.Set(8)
	page.FooterCenter.Set(data.Company.Name)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return pdfg.Bytes(), nil
}

func methodLabel(m payment.MethodType) string {
	switch m {
	case payment.MethodWallet:
		return "Wallet"
	case payment.MethodMpesa:
		return "M-Pesa"
	default:
		return string(m)
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": money,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; margin-bottom: 20px; padding-bottom: 10px; }
        .title { font-size: 22px; font-weight: bold; color: #16a34a; }
        table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        th, td { padding: 6px; border-bottom: 1px solid #eee; text-align: left; }
        .num { text-align: right; }
        .total td { font-weight: bold; border-top: 2px solid #333; }
        .meta { font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">Payment Receipt</div>
        <div>{{.Company.Name}}</div>
        <div class="meta">{{.Company.Email}}{{if .Company.Phone}} · {{.Company.Phone}}{{end}}</div>
    </div>
    <div class="meta">Receipt {{.ReceiptNumber}} · {{.IssuedAt}}</div>
    <div class="meta">Order {{.Order.OrderNumber}} · Paid with {{.MethodLabel}}{{if .Payment.TransactionID}} · Ref {{.Payment.TransactionID}}{{end}}</div>
    <table>
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Subtotal</th></tr>
        </thead>
        <tbody>
        {{range .Order.Items}}
            <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price}}</td><td class="num">{{money .Subtotal}}</td></tr>
        {{end}}
        </tbody>
        <tfoot>
            <tr><td colspan="3">Subtotal</td><td class="num">{{money .Order.SubtotalAmount}}</td></tr>
            <tr><td colspan="3">Tax</td><td class="num">{{money .Order.TaxAmount}}</td></tr>
            <tr class="total"><td colspan="3">Total ({{.Currency}})</td><td class="num">{{money .Order.TotalAmount}}</td></tr>
        </tfoot>
    </table>
</body>
</html>
`))
