// Package sequence assigns human readable reference codes to reservations
// from per company, agency and channel counters.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// Tags maps a sales channel to the tag printed in its codes.
type Tags map[model.Channel]string

// DefaultTags are the tags used when none are configured.
var DefaultTags = Tags{model.ChannelCounter: "GUI", model.ChannelOnline: "WEB"}

// Sequencer assigns reference codes of the form
// {company abbreviation}-{agency initial}-{channel tag}-{serial}.
type Sequencer struct {
	store repository.Store
	tags  Tags
	log   *log.Logger
}

// New returns a Sequencer.  Channels missing from tags fall back to
// DefaultTags.
func New(store repository.Store, tags Tags, logger *log.Logger) *Sequencer {
	merged := Tags{}
	for ch, tag := range DefaultTags {
		merged[ch] = tag
	}
	for ch, tag := range tags {
		if tag = strings.ToUpper(strings.TrimSpace(tag)); tag != "" {
			merged[ch] = tag
		}
	}
	if logger == nil {
		logger = log.New("sequence")
	}
	return &Sequencer{store: store, tags: merged, log: logger}
}

// Assign returns the reference code of a reservation, assigning the next
// serial of its scope when it has none yet.  Calling Assign again for the
// same reservation returns the code already written without consuming a
// serial.  The counter increment and the code write commit together.
func (s *Sequencer) Assign(ctx context.Context, reservationID string) (string, error) {
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return "", fmt.Errorf("load reservation %s: %w", reservationID, err)
	}
	if r.ReferenceCode != "" {
		return r.ReferenceCode, nil
	}
	prefix, err := s.prefix(ctx, r)
	if err != nil {
		return "", err
	}
	key := model.CounterKey{CompanyID: r.CompanyID, AgencyID: r.AgencyID, Channel: r.Channel}

	var code string
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx repository.Store) error {
		cur, err := tx.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if cur.ReferenceCode != "" {
			code = cur.ReferenceCode
			return nil
		}
		c, err := tx.GetCounter(ctx, key)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c = &model.SequenceCounter{CompanyID: key.CompanyID, AgencyID: key.AgencyID, Channel: key.Channel}
		case err != nil:
			return err
		}
		c.Last++
		if err := tx.PutCounter(ctx, c); err != nil {
			return err
		}
		code = fmt.Sprintf("%s-%04d", prefix, c.Last)
		return tx.SetReferenceCode(ctx, reservationID, code)
	})
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent Assign wrote the code first; its write stands.
		if cur, gerr := s.store.GetReservation(ctx, reservationID); gerr == nil && cur.ReferenceCode != "" {
			return cur.ReferenceCode, nil
		}
	}
	if err != nil {
		return "", fmt.Errorf("assign code to reservation %s: %w", reservationID, err)
	}
	s.log.Debugf("reservation %s -> %s", reservationID, code)
	return code, nil
}

// prefix resolves the names a code is built from, outside the transaction.
func (s *Sequencer) prefix(ctx context.Context, r *model.Reservation) (string, error) {
	companyName, companyCode := r.CompanyName, ""
	c, err := s.store.GetCompany(ctx, r.CompanyID)
	switch {
	case err == nil:
		companyName, companyCode = c.Name, c.Code
	case !errors.Is(err, repository.ErrNotFound):
		return "", fmt.Errorf("load company %s: %w", r.CompanyID, err)
	}
	agencyName := r.AgencyName
	if agencyName == "" {
		a, err := s.store.GetAgency(ctx, r.AgencyID)
		switch {
		case err == nil:
			agencyName = a.Name
		case !errors.Is(err, repository.ErrNotFound):
			return "", fmt.Errorf("load agency %s: %w", r.AgencyID, err)
		}
	}
	tag, ok := s.tags[r.Channel]
	if !ok {
		return "", fmt.Errorf("no code tag for channel %q", r.Channel)
	}
	return fmt.Sprintf("%s-%s-%s", Abbreviation(companyName, companyCode), Initial(agencyName), tag), nil
}

const maxAbbrev = 3

// Abbreviation returns the company part of a code.  An explicit code wins;
// otherwise a multi-word name gives its initials and a single word its
// first letters.  Only letters are kept, upper cased, at most three.
func Abbreviation(name, code string) string {
	if a := letters(code, maxAbbrev); a != "" {
		return a
	}
	words := strings.FieldsFunc(name, func(r rune) bool { return !unicode.IsLetter(r) })
	var a string
	if len(words) > 1 {
		var b strings.Builder
		for _, w := range words {
			b.WriteRune([]rune(w)[0])
		}
		a = letters(b.String(), maxAbbrev)
	} else {
		a = letters(name, maxAbbrev)
	}
	if a == "" {
		return "X"
	}
	return a
}

// Initial returns the agency part of a code.
func Initial(name string) string {
	if i := letters(name, 1); i != "" {
		return i
	}
	return "X"
}

func letters(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if n == 0 {
			break
		}
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n--
	}
	return b.String()
}
