package webhook

import (
	"encoding/xml"

	"github.com/gin-gonic/gin"
)

// twimlResponse is the messaging response envelope Twilio expects from a
// webhook. An empty Messages slice renders <Response></Response>, which
// instructs Twilio to send nothing back.
type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message,omitempty"`
}

func writeTwiML(c *gin.Context, messages ...string) {
	c.Header("Content-Type", "text/xml; charset=utf-8")
	c.String(200, xml.Header+renderTwiML(messages))
}

func renderTwiML(messages []string) string {
	out, err := xml.Marshal(twimlResponse{Messages: messages})
	if err != nil {
		// Marshalling a slice of strings cannot fail; keep Twilio happy anyway.
		return "<Response></Response>"
	}
	return string(out)
}
