package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"newsletter/internal/mailer"
	"newsletter/internal/subscribers"
	"newsletter/types"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

type fakeScanner struct {
	records []subscribers.Record
	err     error
}

func (f *fakeScanner) FetchAll(ctx context.Context) ([]subscribers.Record, error) {
	return f.records, f.err
}

type fakeDispatcher struct {
	got   [][]string
	calls int
	err   error
}

func (f *fakeDispatcher) Send(ctx context.Context, recipients []string) (mailer.SendResult, error) {
	f.calls++
	f.got = append(f.got, recipients)
	if f.err != nil {
		return mailer.SendResult{}, f.err
	}
	return mailer.SendResult{Recipients: len(recipients)}, nil
}

func record(t *testing.T, email string, subscribed bool) subscribers.Record {
	item, err := attributevalue.MarshalMap(types.Subscriber{ID: email, Email: email, Subscribed: subscribed})
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func TestSendNewsletter(t *testing.T) {
	scanErr := &subscribers.BackendError{Op: "scan", Table: "Emails", Page: 2, Err: errors.New("throttled")}
	sendErr := &mailer.EmailServiceError{FailedChunks: []int{0}, Chunks: 1, Err: errors.New("MessageRejected")}

	testCases := []struct {
		desc           string
		scanErr        error
		sendErr        error
		expectedStatus int
		expectedSends  int
		bodyContains   string
	}{
		{"success", nil, nil, http.StatusOK, 1, "newsletter sent to 2 subscribers"},
		{"scan backend error", scanErr, nil, http.StatusBadGateway, 0, "page 2"},
		{"email service error", nil, sendErr, http.StatusBadGateway, 1, "MessageRejected"},
		{"unclassified error", errors.New("boom"), nil, http.StatusInternalServerError, 0, "boom"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			s := &fakeScanner{
				records: []subscribers.Record{
					record(t, "a@x.com", true),
					record(t, "b@x.com", false),
					record(t, "c@x.com", true),
				},
				err: tc.scanErr,
			}
			d := &fakeDispatcher{err: tc.sendErr}
			h := New(s, d, zaptest.NewLogger(t))

			res, err := h.SendNewsletter(context.Background(), events.APIGatewayV2HTTPRequest{})
			if err != nil {
				t.Fatalf("got invocation error %v; expected failures as responses", err)
			}
			if res.StatusCode != tc.expectedStatus {
				t.Errorf("unexpected StatusCode value: got %d; expected %d", res.StatusCode, tc.expectedStatus)
			}
			if !strings.Contains(res.Body, tc.bodyContains) {
				t.Errorf("body %q does not contain %q", res.Body, tc.bodyContains)
			}
			if d.calls != tc.expectedSends {
				t.Fatalf("Send called %d times; expected %d", d.calls, tc.expectedSends)
			}
			if tc.expectedSends == 1 {
				if diff := cmp.Diff([]string{"a@x.com", "c@x.com"}, d.got[0]); diff != "" {
					t.Errorf("recipients mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestSendNewsletterNoSubscribers(t *testing.T) {
	s := &fakeScanner{records: []subscribers.Record{record(t, "b@x.com", false)}}
	d := &fakeDispatcher{}
	h := New(s, d, nil)

	res, err := h.SendNewsletter(context.Background(), events.APIGatewayV2HTTPRequest{})
	if err != nil {
		t.Fatalf("got error %v; expected nil", err)
	}
	if res.StatusCode != http.StatusOK || res.Body != "newsletter sent to 0 subscribers" {
		t.Errorf("got %d %q; expected 200 with zero subscribers", res.StatusCode, res.Body)
	}
}

// pagedScanAPI serves items in fixed-size pages keyed by item index.
type pagedScanAPI struct {
	items    []map[string]ddbtypes.AttributeValue
	pageSize int
	calls    int
}

func (p *pagedScanAPI) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	p.calls++
	start := 0
	if k, ok := params.ExclusiveStartKey["n"].(*ddbtypes.AttributeValueMemberN); ok {
		fmt.Sscan(k.Value, &start)
	}
	stop := start + p.pageSize
	if stop > len(p.items) {
		stop = len(p.items)
	}
	out := &dynamodb.ScanOutput{Items: p.items[start:stop], Count: int32(stop - start)}
	if stop < len(p.items) {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			"n": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprint(stop)},
		}
	}
	return out, nil
}

type recordingSESv2 struct {
	bcc [][]string
}

func (r *recordingSESv2) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	r.bcc = append(r.bcc, params.Destination.BccAddresses)
	return &sesv2.SendEmailOutput{MessageId: aws.String(fmt.Sprint(len(r.bcc)))}, nil
}

func TestSendNewsletterEndToEnd(t *testing.T) {
	api := &pagedScanAPI{pageSize: 7}
	var want []string
	for i := 0; i < 120; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		api.items = append(api.items, record(t, email, i%3 != 0))
		if i%3 != 0 {
			want = append(want, email)
		}
	}

	log := zaptest.NewLogger(t)
	scanner := subscribers.NewScanner(subscribers.ScannerConfig{ScanClient: api, TableName: "Emails", Logger: log})
	ses := &recordingSESv2{}
	dispatcher := mailer.New(mailer.Config{
		SendEmailAPI:     ses,
		FromEmailAddress: "news@example.com",
		Template:         mailer.DefaultTemplate(),
		Logger:           log,
	})
	h := New(scanner, dispatcher, log)

	res, err := h.SendNewsletter(context.Background(), events.APIGatewayV2HTTPRequest{})
	if err != nil {
		t.Fatalf("got error %v; expected nil", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("got status %d (%s); expected 200", res.StatusCode, res.Body)
	}
	if api.calls != 18 {
		t.Errorf("Scan called %d times; expected 18", api.calls)
	}
	if len(ses.bcc) != 2 {
		t.Fatalf("SendEmail called %d times; expected 2", len(ses.bcc))
	}
	var got []string
	for _, b := range ses.bcc {
		got = append(got, b...)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BCC recipients mismatch (-want +got):\n%s", diff)
	}
	if res.Body != fmt.Sprintf("newsletter sent to %d subscribers", len(want)) {
		t.Errorf("unexpected body %q", res.Body)
	}
}
