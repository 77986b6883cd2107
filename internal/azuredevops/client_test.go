package azuredevops

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tberrors "github.com/randalmurphal/ticketbridge/internal/errors"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		OrgURL:   srv.URL,
		Project:  "Helpdesk",
		Username: "svc",
		Token:    "pat",
	}, nil)
	require.NoError(t, err)
	c.http.RetryMax = 0
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{Project: "p", Token: "t"}, nil)
	assert.Error(t, err, "missing org URL")

	_, err = NewClient(Config{OrgURL: "https://dev.azure.com/acme", Token: "t"}, nil)
	assert.Error(t, err, "missing project")

	_, err = NewClient(Config{OrgURL: "https://dev.azure.com/acme", Project: "p"}, nil)
	assert.Error(t, err, "missing token")
}

func TestNewClient_DefaultWorkItemType(t *testing.T) {
	c, err := NewClient(Config{OrgURL: "https://dev.azure.com/acme", Project: "p", Token: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bug", c.workItemType)
}

func TestCreateWorkItem(t *testing.T) {
	var gotPath, gotContentType string
	var gotPatch []PatchOperation
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotPatch)
		io.WriteString(w, `{"id":812,"rev":1,"fields":{"System.Title":"printer on fire"}}`)
	}))

	item, err := c.CreateWorkItem(context.Background(), []PatchOperation{
		AddField("System.Title", "printer on fire"),
	})
	require.NoError(t, err)

	assert.Equal(t, 812, item.ID)
	assert.Equal(t, "printer on fire", item.Fields["System.Title"].AsString())

	assert.Equal(t, "/DefaultCollection/Helpdesk/_apis/wit/workitems/$Bug?api-version=7.1-preview.3", gotPath)
	assert.Equal(t, "application/json-patch+json", gotContentType)
	require.Len(t, gotPatch, 1)
	assert.Equal(t, "/fields/System.Title", gotPatch[0].Path)
}

func TestCreateWorkItem_EscapesType(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		io.WriteString(w, `{"id":1}`)
	}))
	c.workItemType = "User Story"

	_, err := c.CreateWorkItem(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/DefaultCollection/Helpdesk/_apis/wit/workitems/$User%20Story", gotPath)
}

func TestGetWorkItem(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DefaultCollection/Helpdesk/_apis/wit/workitems/812", r.URL.Path)
		assert.Equal(t, "7.1", r.URL.Query().Get("api-version"))
		io.WriteString(w, `{"id":812,"rev":4,"fields":{"System.State":"Active","Custom.Estimate":3.5}}`)
	}))

	item, err := c.GetWorkItem(context.Background(), 812)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Rev)
	assert.Equal(t, "Active", item.Fields["System.State"].AsString())
	assert.Equal(t, "3.5", item.Fields["Custom.Estimate"].AsString())
}

func TestUpdateWorkItem_RemoteError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"work item does not exist"}`)
	}))

	_, err := c.UpdateWorkItem(context.Background(), 999, []PatchOperation{AddField("System.Title", "x")})
	require.Error(t, err)

	var remote *tberrors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusNotFound, remote.StatusCode)
	assert.Equal(t, "azuredevops", remote.System)
	assert.Contains(t, remote.Body, "does not exist")
}

func TestUploadAttachment(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/DefaultCollection/Helpdesk/_apis/wit/attachments", r.URL.Path)
		assert.Equal(t, "log file.txt", r.URL.Query().Get("fileName"))
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"id":"abc-123","url":"https://org/_apis/wit/attachments/abc-123"}`)
	}))

	ref, err := c.UploadAttachment(context.Background(), "log file.txt", "", []byte("file-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "abc-123", ref.ID)
	assert.Equal(t, "application/octet-stream", gotContentType)
	assert.Equal(t, "file-bytes", string(gotBody))
}

func TestLinkAttachment(t *testing.T) {
	var gotPatch []PatchOperation
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotPatch)
		io.WriteString(w, `{"id":812}`)
	}))

	err := c.LinkAttachment(context.Background(), 812, "https://org/_apis/wit/attachments/abc", "log.txt")
	require.NoError(t, err)

	require.Len(t, gotPatch, 1)
	assert.Equal(t, "/relations/-", gotPatch[0].Path)
}
