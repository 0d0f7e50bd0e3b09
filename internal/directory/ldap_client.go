package directory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// LDAPConfig holds the connection parameters for the directory server's
// changelog container (spec §6: "Bind with DN and password").
type LDAPConfig struct {
	URL      string
	BindDN   string
	Password string
	// ChangelogBaseDN is the search base, typically "cn=changelog".
	ChangelogBaseDN string
	DialTimeout     time.Duration
}

// LDAPClient is the production Client, backed by a single bound
// connection to the directory server (github.com/go-ldap/ldap/v3).
type LDAPClient struct {
	conn *ldap.Conn
	cfg  LDAPConfig
}

// DialLDAP opens and binds a connection. Call Close when done with it.
func DialLDAP(cfg LDAPConfig) (*LDAPClient, error) {
	conn, err := ldap.DialURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("directory: dial %s: %w", cfg.URL, err)
	}
	if cfg.DialTimeout > 0 {
		conn.SetTimeout(cfg.DialTimeout)
	}
	if err := conn.Bind(cfg.BindDN, cfg.Password); err != nil {
		conn.Close()
		return nil, fmt.Errorf("directory: bind %s: %w", cfg.BindDN, err)
	}
	return &LDAPClient{conn: conn, cfg: cfg}, nil
}

// changelogFilter builds the filter spec.md §4.2 requires: change number at
// or above nextCn, restricted to the users/groups subtrees, excluding the
// vm*/amon* targetDNs that never carry account graph objects.
func changelogFilter(minChangeNumber int64) string {
	return fmt.Sprintf(
		"(&(changenumber>=%d)(|(targetdn=*ou=users*)(targetdn=*ou=groups*))(!(targetdn=vm*))(!(targetdn=amon*)))",
		minChangeNumber,
	)
}

// SearchChangelog issues one paged search against the changelog container.
// ctx is honored on a best-effort basis: go-ldap's Search call has no
// native context support, so cancellation only takes effect between pages
// when the caller loops (the poller never issues more than one page per
// call, so in practice this means "before the next GetNext").
func (c *LDAPClient) SearchChangelog(ctx context.Context, req SearchRequest) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	search := ldap.NewSearchRequest(
		c.cfg.ChangelogBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, req.PageSize, 0, false,
		changelogFilter(req.MinChangeNumber),
		[]string{"targetdn", "changenumber", "changetype", "changes", "entry", "changetime"},
		nil,
	)

	result, err := c.conn.Search(search)
	if err != nil {
		return nil, fmt.Errorf("directory: search: %w", err)
	}

	entries := make([]Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entry, err := entryFromLDAP(e)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ChangeNumber < entries[j].ChangeNumber })
	return entries, nil
}

func entryFromLDAP(e *ldap.Entry) (Entry, error) {
	cn, err := strconv.ParseInt(e.GetAttributeValue("changenumber"), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("directory: entry %s: bad changenumber: %w", e.DN, err)
	}

	changeTime, err := parseChangeTime(e.GetAttributeValue("changetime"))
	if err != nil {
		return Entry{}, fmt.Errorf("directory: entry %s: bad changetime: %w", e.DN, err)
	}

	return Entry{
		TargetDN:     e.GetAttributeValue("targetdn"),
		ChangeNumber: cn,
		ChangeType:   e.GetAttributeValue("changetype"),
		Changes:      []byte(e.GetAttributeValue("changes")),
		PostEntry:    []byte(e.GetAttributeValue("entry")),
		ChangeTime:   changeTime,
	}, nil
}

func parseChangeTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	// LDAP generalized time, e.g. 20251217120000Z.
	return time.Parse("20060102150405Z", raw)
}

func (c *LDAPClient) Close() error { return c.conn.Close() }
