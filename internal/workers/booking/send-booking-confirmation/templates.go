// internal/workers/booking/send-booking-confirmation/templates.go
package sendbookingconfirmation

import (
	"fmt"
	"strings"
)

const (
	emailSubject = "Your booking for {{tourName}} is confirmed"
	emailBody    = `Hello {{customerName}},

Your booking {{bookingId}} for {{tourName}} on {{travelDate}} for {{numberOfPeople}} traveller(s) is registered.
Total: {{totalPrice}} {{currency}}.

We look forward to seeing you.`
	smsBody = "{{tourName}} on {{travelDate}}: booking {{bookingId}} registered. Total {{totalPrice}} {{currency}}."
)

func (c confirmation) templateData() map[string]interface{} {
	return map[string]interface{}{
		"bookingId":      c.BookingID,
		"customerName":   c.CustomerName,
		"tourName":       c.TourName,
		"travelDate":     c.TravelDate,
		"numberOfPeople": c.NumberOfPeople,
		"totalPrice":     fmt.Sprintf("%.2f", c.TotalPrice),
		"currency":       c.Currency,
	}
}

// renderTemplate fills {{key}} placeholders and drops any left unfilled.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		if v != nil {
			value = fmt.Sprint(v)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
