package httpapi

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	e164     = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
	sipURI   = regexp.MustCompile(`^sips?:[^@\s]+@[^\s]+$`)
	mediaURL = regexp.MustCompile(`^https?://[^\s]+$`)
	areaCode = regexp.MustCompile(`^[2-9][0-9]{2}$`)
	usState  = regexp.MustCompile(`^[A-Z]{2}$`)
)

// maxCDRWindow bounds a single CDR request.
const maxCDRWindow = 31 * 24 * time.Hour

type createCallRequest struct {
	From             string `json:"from"`
	To               string `json:"to"`
	RecordingEnabled bool   `json:"recording_enabled"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
}

func (r createCallRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.Match(e164)),
		validation.Field(&r.To, validation.Required, validation.By(func(v any) error {
			s, _ := v.(string)
			if e164.MatchString(s) || sipURI.MatchString(s) {
				return nil
			}
			return errors.New("must be an E.164 number or sip: URI")
		})),
		validation.Field(&r.TimeoutSeconds, validation.Min(0), validation.Max(300)),
	)
}

type sendMessageRequest struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Text  string   `json:"text"`
	Media []string `json:"media"`
}

func (r sendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.Match(e164)),
		validation.Field(&r.To, validation.Required, validation.Match(e164)),
		validation.Field(&r.Text, validation.When(len(r.Media) == 0, validation.Required), validation.Length(0, 2048)),
		validation.Field(&r.Media, validation.Each(validation.Match(mediaURL))),
	)
}

type buyNumberRequest struct {
	NumberType    string `json:"number_type"`
	AreaCode      string `json:"area_code"`
	State         string `json:"state"`
	DesiredNumber string `json:"desired_number"`
}

func (r buyNumberRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NumberType, validation.In("local", "tollFree")),
		validation.Field(&r.AreaCode, validation.Match(areaCode)),
		validation.Field(&r.State, validation.Match(usState)),
		validation.Field(&r.DesiredNumber, validation.Match(e164)),
	)
}

// bind decodes the JSON body into v and validates it. It aborts with 400
// and returns false on failure.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	if vv, ok := v.(validation.Validatable); ok {
		if err := vv.Validate(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": err})
			return false
		}
	}
	return true
}

// cdrWindow parses the [from, to) query window. Missing bounds default to
// the 24 hours before now.
func cdrWindow(fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	to := now
	if s := strings.TrimSpace(toRaw); s != "" {
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to")
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if s := strings.TrimSpace(fromRaw); s != "" {
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from")
		}
		from = t
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, errors.New("from must be before to")
	}
	if to.Sub(from) > maxCDRWindow {
		return time.Time{}, time.Time{}, errors.New("window must not exceed 31 days")
	}
	return from.UTC(), to.UTC(), nil
}
