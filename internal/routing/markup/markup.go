// Package markup renders the XML response documents the voice carrier
// executes when a call hits one of our numbers.
package markup

import "encoding/xml"

// Say speaks text to the caller.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Stream bridges call audio to a websocket endpoint.
type Stream struct {
	XMLName xml.Name `xml:"Stream"`
	URL     string   `xml:"url,attr"`
}

// Connect hands the call to a media stream.
type Connect struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  Stream
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Response is the document root. Verbs execute top to bottom in field
// order, so Say always precedes Connect or Hangup.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Say     []Say
	Connect *Connect `xml:",omitempty"`
	Hangup  *Hangup  `xml:",omitempty"`
}

// AnswerCall greets the caller and bridges them to the agent stream.
func AnswerCall(greeting, streamURL string) *Response {
	return &Response{
		Say:     []Say{{Text: greeting}},
		Connect: &Connect{Stream: Stream{URL: streamURL}},
	}
}

// RejectCall politely declines and hangs up. Used for unrouted numbers
// and exhausted hard limits.
func RejectCall(message string) *Response {
	return &Response{
		Say:    []Say{{Text: message}},
		Hangup: &Hangup{},
	}
}

// Render serializes the document with the XML declaration the carrier
// requires.
func (r *Response) Render() (string, error) {
	out, err := xml.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
