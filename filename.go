package promptpoll

import (
	"context"
	"encoding/json"
	"errors"
)

// DeriveFilename: Asks the model for a descriptive file stem for prompt. It never fails: any problem degrades to DefaultFilename.
func (p *Poller) DeriveFilename(ctx context.Context, prompt string) string {
	if p.Transport == nil {
		return DefaultFilename
	}
	body, err := json.Marshal(p.Settings.FilenamePayload(prompt))
	if err != nil {
		p.log().Errorf("Encoding filename request: %v", err)
		return DefaultFilename
	}

	if p.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Settings.Timeout)
		defer cancel()
	}

	status, respBody, err := p.Transport.Send(ctx, body)
	if err != nil {
		p.log().Errorf("Network error fetching filename: %v", err)
		return DefaultFilename
	}
	if status != 200 {
		p.log().Errorf("Filename request failed with status %d: %s", status, respBody)
		return DefaultFilename
	}
	p.log().Debugf("Filename response data: %s", respBody)

	var filename string
	content, err := messageContent(respBody)
	switch {
	case errors.Is(err, ErrMalformedResponse):
		// The envelope itself was cut short; the field may still be recoverable from the raw text.
		p.log().Warnf("Malformed filename response, attempting fallback extraction: %v", err)
		filename = Sanitize(parseRawFilename(string(respBody)))
	case content == "":
		p.log().Info("No content returned for filename, using default.")
		return DefaultFilename
	default:
		filename = Sanitize(ParseFilename(content))
	}
	p.log().Infof("Generated filename: %s", filename)
	return filename
}
