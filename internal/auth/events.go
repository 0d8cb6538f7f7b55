package auth

import (
	"context"
	"strings"

	"github.com/allthepins/identity-gateway/internal/idp"
)

// ListAuthEvents returns one page of the user's auth events, newest first.
// maxResults of 0 uses the configured default; larger values are capped at
// the provider limit. An empty nextToken starts from the first page.
func (s *Service) ListAuthEvents(ctx context.Context, username string, maxResults int, nextToken string) (page *idp.AuthEventPage, err error) {
	log, finish := s.begin(OpListAuthEvents, username)
	defer func() { finish(err) }()

	if err := required("username", username); err != nil {
		return nil, invalidParameter(OpListAuthEvents, err.Error())
	}
	if maxResults < 0 {
		return nil, invalidParameter(OpListAuthEvents, "max results must not be negative")
	}

	page, err = s.provider.ListAuthEvents(ctx, idp.ListAuthEventsRequest{
		Username:   username,
		MaxResults: s.pageSize(maxResults),
		NextToken:  strings.TrimSpace(nextToken),
	})
	if err != nil {
		return nil, translate(OpListAuthEvents, username, err)
	}
	if page == nil {
		page = &idp.AuthEventPage{}
	}
	if page.Events == nil {
		page.Events = []idp.AuthEvent{}
	}

	if s.ipcrypt != nil {
		for i := range page.Events {
			ev := &page.Events[i]
			if ev.IPAddress == "" {
				continue
			}
			enc, err := s.ipcrypt.Encrypt(ev.IPAddress)
			if err != nil {
				// err quotes the raw address.
				log.Warn("dropping ip address that could not be pseudonymized", "event_id", ev.ID)
				ev.IPAddress = ""
				continue
			}
			ev.IPAddress = enc
		}
	}

	log.Debug("listed auth events", "count", len(page.Events), "more", page.NextToken != "")
	return page, nil
}

func (s *Service) pageSize(n int) int32 {
	switch {
	case n == 0:
		return s.eventsLimit
	case n > maxAuthEventsPage:
		return maxAuthEventsPage
	default:
		return int32(n)
	}
}

// RevealIP recovers the original address behind an auth event IP pseudonym.
// It needs the same key that pseudonymized the events.
func (s *Service) RevealIP(pseudonym string) (ip string, err error) {
	log, finish := s.begin(OpRevealIP, "")
	defer func() { finish(err) }()

	if s.ipcrypt == nil {
		return "", &Error{Kind: ErrOperationFailed, Op: OpRevealIP, Message: "IP pseudonymization is not configured."}
	}
	if err := required("pseudonym", pseudonym); err != nil {
		return "", invalidParameter(OpRevealIP, err.Error())
	}

	ip, err = s.ipcrypt.Decrypt(strings.TrimSpace(pseudonym))
	if err != nil {
		return "", &Error{Kind: ErrInvalidParameter, Op: OpRevealIP, Message: "Not a valid IP pseudonym.", Err: err}
	}

	// Revealing is an audited action; the address itself is not logged.
	log.Info("revealed ip address", "pseudonym", pseudonym)
	return ip, nil
}
