package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/policy.html
var policyFS embed.FS

var policyTmpl = template.Must(template.ParseFS(policyFS, "templates/policy.html"))

// PolicyInfo is the business contact block rendered on every page.
type PolicyInfo struct {
	Academy string
	Email   string
	Phone   string
	Address string
	Updated string
}

type policySection struct {
	Heading    string
	Paragraphs []string
	Items      []string
}

type policyPage struct {
	Title    string
	Sections []policySection
}

// policyPages is keyed by route path.
var policyPages = map[string]policyPage{
	"/refund-policy": {
		Title: "Cancellation & Refund Policy",
		Sections: []policySection{
			{Heading: "Cancellation Policy", Paragraphs: []string{
				"You can cancel within 7 days of purchase for a full refund if you have watched less than 10% of the course content.",
			}},
			{Heading: "Refund Policy", Paragraphs: []string{
				"No refunds are provided after the 7-day period.",
				"Approved refunds are processed within 7-10 business days and credited to the original payment method.",
			}},
			{Heading: "Non-Refundable Items", Items: []string{
				"Courses purchased more than 7 days ago",
				"Courses where more than 10% of the content has been accessed",
				"Live class bookings",
			}},
		},
	},
	"/terms-and-conditions": {
		Title: "Terms and Conditions",
		Sections: []policySection{
			{Heading: "1. Acceptance of Terms", Paragraphs: []string{
				"By using our services you agree to be bound by these Terms and Conditions.",
			}},
			{Heading: "2. Course Enrollment", Paragraphs: []string{
				"Access to a course is granted as soon as payment is confirmed. Course materials are for personal use only and may not be shared or resold.",
			}},
			{Heading: "3. Payment", Paragraphs: []string{
				"Course fees are listed in Indian Rupees and are payable through our hosted checkout before content is unlocked.",
			}},
			{Heading: "4. Course Access", Paragraphs: []string{
				"Enrolled students keep access to the course unless stated otherwise. Courses may be modified or withdrawn with prior notice.",
			}},
			{Heading: "5. User Conduct", Items: []string{
				"Do not share login credentials",
				"Do not download or redistribute course content",
				"Do not use content commercially without permission",
			}},
		},
	},
	"/shipping-policy": {
		Title: "Shipping Policy",
		Sections: []policySection{
			{Heading: "Digital Products", Paragraphs: []string{
				"All courses are delivered online. Nothing is shipped physically.",
			}},
			{Heading: "Instant Access", Paragraphs: []string{
				"Enrolled courses are available immediately after successful payment.",
			}},
			{Heading: "Certificate Delivery", Paragraphs: []string{
				"Certificates of completion are issued digitally and can be viewed from your account.",
			}},
		},
	},
	"/privacy-policy": {
		Title: "Privacy Policy",
		Sections: []policySection{
			{Heading: "1. Information We Collect", Items: []string{
				"Name, email address and phone number",
				"Payment references from our payment processor (card details are never stored)",
				"Course progress and completed lessons",
			}},
			{Heading: "2. How We Use Your Information", Items: []string{
				"Providing access to courses and live classes",
				"Processing payments",
				"Sending one-time login codes and course notifications",
			}},
			{Heading: "3. Data Sharing", Paragraphs: []string{
				"We do not sell personal information. Data is shared only with the payment and SMS providers that operate the service, or when required by law.",
			}},
			{Heading: "4. Your Rights", Items: []string{
				"Access your personal data",
				"Request corrections",
				"Request deletion of your account",
			}},
		},
	},
	"/contact-us": {
		Title: "Contact Us",
		Sections: []policySection{
			{Heading: "Business Hours", Paragraphs: []string{
				"Monday to Saturday, 10:00 AM - 6:00 PM IST. Closed on Sunday.",
				"We respond to all inquiries within 24 hours on business days.",
			}},
		},
	},
}

// PolicyHandler renders the static legal pages required by the payment
// provider.
type PolicyHandler struct {
	Info PolicyInfo
}

func NewPolicyHandler(info PolicyInfo) *PolicyHandler { return &PolicyHandler{Info: info} }

// Paths lists the routes served by Page.
func (h *PolicyHandler) Paths() []string {
	return []string{"/refund-policy", "/terms-and-conditions", "/shipping-policy", "/privacy-policy", "/contact-us"}
}

// Page renders the policy registered for the request path.
func (h *PolicyHandler) Page(c echo.Context) error {
	page, ok := policyPages[c.Path()]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	var buf bytes.Buffer
	if err := policyTmpl.Execute(&buf, struct {
		Page policyPage
		Info PolicyInfo
	}{page, h.Info}); err != nil {
		return fail(c, err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
