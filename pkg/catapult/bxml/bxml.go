// Package bxml builds Bandwidth XML call-control documents, the payload a
// voice callback handler answers with to drive a call.
package bxml

import (
	"bytes"
	"encoding/xml"
)

// ContentType is the media type of a rendered Response.
const ContentType = "application/xml; charset=utf-8"

// Verb is one instruction in a Response.
type Verb interface {
	verb()
}

// Response is the root document. Verbs run in order.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []Verb   `xml:",any"`
}

// New returns a Response holding verbs.
func New(verbs ...Verb) *Response {
	return &Response{Verbs: verbs}
}

// Add appends verbs and returns r.
func (r *Response) Add(verbs ...Verb) *Response {
	r.Verbs = append(r.Verbs, verbs...)
	return r
}

// Marshal renders the document with the XML header.
func (r *Response) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String renders the document, or "" if it cannot be encoded.
func (r *Response) String() string {
	b, err := r.Marshal()
	if err != nil {
		return ""
	}
	return string(b)
}

// SpeakSentence reads text with text-to-speech.
type SpeakSentence struct {
	XMLName  xml.Name `xml:"SpeakSentence"`
	Gender   string   `xml:"gender,attr,omitempty"`
	Locale   string   `xml:"locale,attr,omitempty"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Sentence string   `xml:",chardata"`
}

// PlayAudio plays a media file.
type PlayAudio struct {
	XMLName xml.Name `xml:"PlayAudio"`
	URL     string   `xml:",chardata"`
}

// Gather collects DTMF digits and posts them to RequestURL.
type Gather struct {
	XMLName           xml.Name       `xml:"Gather"`
	RequestURL        string         `xml:"requestUrl,attr,omitempty"`
	RequestURLTimeout int            `xml:"requestUrlTimeout,attr,omitempty"`
	MaxDigits         int            `xml:"maxDigits,attr,omitempty"`
	InterDigitTimeout int            `xml:"interDigitTimeout,attr,omitempty"`
	TerminatingDigits string         `xml:"terminatingDigits,attr,omitempty"`
	Bargeable         bool           `xml:"bargeable,attr,omitempty"`
	Tag               string         `xml:"tag,attr,omitempty"`
	SpeakSentence     *SpeakSentence `xml:"SpeakSentence,omitempty"`
	PlayAudio         *PlayAudio     `xml:"PlayAudio,omitempty"`
}

// Transfer bridges the call to one of PhoneNumbers (or TransferTo).
type Transfer struct {
	XMLName          xml.Name       `xml:"Transfer"`
	TransferTo       string         `xml:"transferTo,attr,omitempty"`
	TransferCallerID string         `xml:"transferCallerId,attr,omitempty"`
	CallTimeout      int            `xml:"callTimeout,attr,omitempty"`
	RequestURL       string         `xml:"requestUrl,attr,omitempty"`
	Tag              string         `xml:"tag,attr,omitempty"`
	SpeakSentence    *SpeakSentence `xml:"SpeakSentence,omitempty"`
	PhoneNumbers     []string       `xml:"PhoneNumber"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Reject declines an incoming call without answering it.
type Reject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

// Record records the caller.
type Record struct {
	XMLName           xml.Name `xml:"Record"`
	RequestURL        string   `xml:"requestUrl,attr,omitempty"`
	MaxDuration       int      `xml:"maxDuration,attr,omitempty"`
	FileFormat        string   `xml:"fileFormat,attr,omitempty"`
	Transcribe        bool     `xml:"transcribe,attr,omitempty"`
	TranscribeCallURL string   `xml:"transcribeCallbackUrl,attr,omitempty"`
	Tag               string   `xml:"tag,attr,omitempty"`
}

// Redirect fetches the next document from RequestURL.
type Redirect struct {
	XMLName           xml.Name `xml:"Redirect"`
	RequestURL        string   `xml:"requestUrl,attr"`
	RequestURLTimeout int      `xml:"requestUrlTimeout,attr,omitempty"`
}

// Pause waits Duration seconds.
type Pause struct {
	XMLName  xml.Name `xml:"Pause"`
	Duration int      `xml:"duration,attr"`
}

// SendMessage sends an SMS while the call continues.
type SendMessage struct {
	XMLName    xml.Name `xml:"SendMessage"`
	From       string   `xml:"from,attr"`
	To         string   `xml:"to,attr"`
	RequestURL string   `xml:"requestUrl,attr,omitempty"`
	Text       string   `xml:",chardata"`
}

func (SpeakSentence) verb() {}
func (PlayAudio) verb()     {}
func (Gather) verb()        {}
func (Transfer) verb()      {}
func (Hangup) verb()        {}
func (Reject) verb()        {}
func (Record) verb()        {}
func (Redirect) verb()      {}
func (Pause) verb()         {}
func (SendMessage) verb()   {}
