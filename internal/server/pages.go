package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/formpay/formpay/internal/order/domain"
)

type outcome string

const (
	outcomeSuccess outcome = "success"
	outcomePending outcome = "pending"
	outcomeFailed  outcome = "failed"
	outcomeError   outcome = "error"
)

var outcomeCopy = map[outcome]struct {
	Title   string
	Message string
}{
	outcomeSuccess: {"Payment received", "Your payment was successful. A confirmation email is on its way."},
	outcomePending: {"Payment pending", "We have not received confirmation from the payment provider yet. This page is safe to refresh."},
	outcomeFailed:  {"Payment failed", "The payment did not complete. No amount has been captured."},
	outcomeError:   {"Something went wrong", "We could not verify this payment. If you were charged, the status will update once the provider notifies us."},
}

var outcomeTmpl = template.Must(template.New("outcome").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { font-family: system-ui, sans-serif; background: #f6f7f9; margin: 0; }
    .card { max-width: 28rem; margin: 4rem auto; background: #fff; border-radius: 8px;
            padding: 2rem; box-shadow: 0 1px 4px rgba(0,0,0,.1); }
    h1 { font-size: 1.25rem; margin: 0 0 .5rem; }
    p { color: #555; margin: 0 0 1rem; }
    dl { font-size: .875rem; color: #333; }
    dt { float: left; clear: left; width: 8rem; color: #888; }
    dd { margin: 0 0 .25rem 8rem; }
  </style>
</head>
<body>
  <div class="card">
    <h1>{{.Title}}</h1>
    <p>{{.Message}}</p>
    {{if .Order}}
    <dl>
      <dt>Order</dt><dd>{{.Order.OrderID}}</dd>
      <dt>Product</dt><dd>{{.Order.ProductName}}</dd>
      <dt>Amount</dt><dd>{{.Order.GrossAmount}} {{.Order.Currency}}</dd>
      <dt>Status</dt><dd>{{.Order.Status}}</dd>
    </dl>
    {{end}}
  </div>
</body>
</html>
`))

func renderOutcome(c *gin.Context, status int, o outcome, order *orderdomain.Order) {
	data := struct {
		Title   string
		Message string
		Order   *orderdomain.Order
	}{
		Title:   outcomeCopy[o].Title,
		Message: outcomeCopy[o].Message,
		Order:   order,
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := outcomeTmpl.Execute(c.Writer, data); err != nil {
		c.String(http.StatusInternalServerError, "internal error")
	}
}
