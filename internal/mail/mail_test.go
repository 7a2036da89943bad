package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirTransportAllMessages(t *testing.T) {
	msgs, err := NewDirTransport("testdata").Messages(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, msgs, 3, "broken and non-eml files are skipped")

	assert.Equal(t, "Weekly digest", msgs[0].Subject)
	assert.Equal(t, "Spring programme – events", msgs[1].Subject)
	assert.Equal(t, "February events", msgs[2].Subject)
}

func TestDirTransportPrefersHTML(t *testing.T) {
	msgs, err := NewDirTransport("testdata").Messages(context.Background(), Query{Sender: "institute.example.org"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	march := msgs[0]
	assert.Equal(t, "march-2026@institute.example.org", march.ID)
	assert.Equal(t, "events@institute.example.org", march.Address())
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), march.Date.UTC())
	assert.Contains(t, march.Body, `<td class="title">Workshop on Transference</td>`)

	february := msgs[1]
	assert.Equal(t, "institute-february", february.ID)
	assert.Equal(t, "March 3, 2026\nClinical Case Conference\n", february.Body)
}

func TestDirTransportCharset(t *testing.T) {
	msgs, err := NewDirTransport("testdata").Messages(context.Background(), Query{Sender: "OTHER.example.com"})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Café lecture on May 5, 2026", strings.TrimSpace(msgs[0].Body))
	assert.Equal(t, "news@other.example.com", msgs[0].Address())
}

func TestDirTransportFilters(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		subjects []string
	}{
		{"subject pattern", Query{SubjectPattern: "^february"}, []string{"February events"}},
		{"since", Query{Since: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, []string{"Weekly digest", "Spring programme – events"}},
		{"limit", Query{Limit: 1}, []string{"Weekly digest"}},
		{"sender and subject", Query{Sender: "institute", SubjectPattern: "programme"}, []string{"Spring programme – events"}},
		{"no match", Query{Sender: "nobody@example.com"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := NewDirTransport("testdata").Messages(context.Background(), tt.query)
			require.NoError(t, err)

			subjects := make([]string, 0, len(msgs))
			for _, m := range msgs {
				subjects = append(subjects, m.Subject)
			}
			assert.Equal(t, tt.subjects, subjects)
		})
	}
}

func TestDirTransportErrors(t *testing.T) {
	_, err := NewDirTransport("testdata/missing").Messages(context.Background(), Query{})
	assert.Error(t, err)

	_, err = NewDirTransport("testdata").Messages(context.Background(), Query{SubjectPattern: "("})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewDirTransport("testdata").Messages(ctx, Query{})
	assert.Error(t, err)
}

func TestParsePlainMessage(t *testing.T) {
	raw := "From: Society <office@society.example.org>\r\n" +
		"Subject: Lecture\r\n" +
		"\r\n" +
		"May 2, 2026 Public lecture\r\n"

	msg, err := Parse(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "Lecture", msg.Subject)
	assert.True(t, msg.Date.IsZero())
	assert.Equal(t, "May 2, 2026 Public lecture\r\n", msg.Body)
}

func TestNewQuery(t *testing.T) {
	now := time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC)

	q := NewQuery("events@institute.example.org", "newsletter|events", now, 0, 0)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), q.Since)
	assert.Equal(t, DefaultMaxMessages, q.Limit)
	assert.Equal(t, "after:2026/03/01 from:events@institute.example.org subject:(newsletter|events)", q.String())

	q = NewQuery("", "", now, 7, 3)
	assert.Equal(t, "after:2026/03/24", q.String())
	assert.Equal(t, 3, q.Limit)
}

func TestSenderAddress(t *testing.T) {
	assert.Equal(t, "events@inst.org", senderAddress("Institute <events@inst.org>"))
	assert.Equal(t, "events@inst.org", senderAddress("events@inst.org"))
	assert.Equal(t, "x@y", senderAddress("Broken \"quote <x@y>"))
	assert.Equal(t, "nobody", senderAddress(" nobody "))
}
