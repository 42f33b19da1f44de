package emailsvc

import (
	"bytes"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/caseload/core"
	logsvc "github.com/trezcool/caseload/services/logger"
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:          "Caseload",
		DefaultFromEmail: mail.Address{Name: "Caseload", Address: "noreply@caseload.test"},
		SendgridApiKey:   "SG.test",
	}
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(testConfig(), logsvc.Discard())

	svc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Address: "teacher@school.test"}},
			Subject: "Progress report",
			BodyStr: "Attached is the latest report.",
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
		&core.EmailMessage{To: []mail.Address{{Address: "parent@home.test"}}, Subject: "no content"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Progress report", sent[0].Subject)
	assert.Equal(t, "Attached is the latest report.", sent[0].TextContent)
}

func TestConsoleServicePrintsMIME(t *testing.T) {
	svc := NewConsoleService(testConfig(), logsvc.Discard())
	out := new(bytes.Buffer)
	svc.out = out

	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Ms Frizzle", Address: "frizzle@school.test"}},
		Subject: "Session update",
		BodyStr: "See attachment.",
	}
	require.NoError(t, msg.Attach(strings.NewReader("%PDF-1.4"), "report.pdf", "application/pdf"))
	svc.SendMessages(msg)
	svc.Wait()

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Caseload] Session update")
	assert.Contains(t, printed, `To: "Ms Frizzle" <frizzle@school.test>`)
	assert.Contains(t, printed, "multipart/mixed")
	assert.Contains(t, printed, "filename=report.pdf")
	assert.Len(t, svc.SentMessages(), 1)
}

func TestNewSendgridServiceRequiresKey(t *testing.T) {
	conf := testConfig()
	conf.SendgridApiKey = ""

	_, err := NewSendgridService(conf, logsvc.Discard())
	assert.Error(t, err)
}

func TestSendgridSend(t *testing.T) {
	svc, err := NewSendgridService(testConfig(), logsvc.Discard())
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		reqs []rest.Request
	)
	status := http.StatusAccepted
	svc.api = func(req rest.Request) (*rest.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		reqs = append(reqs, req)
		return &rest.Response{StatusCode: status, Body: "bad request"}, nil
	}

	msg := core.EmailMessage{
		To:          []mail.Address{{Address: "teacher@school.test"}},
		Cc:          []mail.Address{{Address: "cm@school.test"}},
		Subject:     "IEP meeting",
		TextContent: "Reminder",
	}
	require.NoError(t, svc.send(msg))

	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, string(reqs[0].Method))
	body := string(reqs[0].Body)
	assert.Contains(t, body, `"subject":"[Caseload] IEP meeting"`)
	assert.Contains(t, body, "cm@school.test")
	assert.NotContains(t, body, "text/html")

	status = http.StatusBadRequest
	assert.Error(t, svc.send(msg))
}
