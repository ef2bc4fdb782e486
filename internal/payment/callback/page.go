package callback

import (
	"html/template"
	"net/http"
)

type pageKind int

const (
	pageSuccess pageKind = iota
	pageFailed
	pageUnknown
)

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>{{.Message}}</p>
  {{if .OrderID}}<p>Order: {{.OrderID}}</p>{{end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Message string
	OrderID string
}

func renderPage(w http.ResponseWriter, kind pageKind, orderID string) {
	data := pageData{OrderID: orderID}
	switch kind {
	case pageSuccess:
		data.Title = "Payment successful"
		data.Message = "Thank you. Your payment has been received."
	case pageFailed:
		data.Title = "Payment failed"
		data.Message = "Your payment was not completed. Please try again."
	default:
		data.Title = "Payment status pending"
		data.Message = "We could not confirm your payment yet. You will be notified once it settles."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := resultPage.Execute(w, data); err != nil {
		// Headers are already out; nothing more to do for the browser.
		return
	}
}
