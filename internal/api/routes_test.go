package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"typedhash/internal/common"
	"typedhash/internal/manager"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	wantDomainHash  = "0xf2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f"
	wantMessageHash = "0xc52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e"
	wantDigest      = "0xbe609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2"
)

const mailPayload = `{
	"types": {
		"EIP712Domain": [
			{"name": "name", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "chainId", "type": "uint256"},
			{"name": "verifyingContract", "type": "address"}
		],
		"Person": [
			{"name": "name", "type": "string"},
			{"name": "wallet", "type": "address"}
		],
		"Mail": [
			{"name": "from", "type": "Person"},
			{"name": "to", "type": "Person"},
			{"name": "contents", "type": "string"}
		]
	},
	"primaryType": "Mail",
	"domain": {
		"name": "Ether Mail",
		"version": "1",
		"chainId": 1,
		"verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
	},
	"message": {
		"from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
		"to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
		"contents": "Hello, Bob!"
	}
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.New(io.Discard, "", 0)
	s := &APIServer{
		manager: manager.NewManager(logger),
		logger:  logger,
	}
	return s.RegisterRoutes()
}

func postHash(t *testing.T, handler http.Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/typed-data/v1.0/hash", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHashTypedData(t *testing.T) {
	handler := newTestServer(t)

	rec := postHash(t, handler, mailPayload)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := common.HashResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotEqual(t, uuid.Nil, resp.EntryID)
	require.Equal(t, "Mail", resp.PrimaryType)
	require.Equal(t, "Mail(Person from,Person to,string contents)Person(string name,address wallet)", resp.EncodeType)
	require.Equal(t, wantDomainHash, resp.DomainHash)
	require.Equal(t, wantMessageHash, resp.MessageHash)
	require.Equal(t, wantDigest, resp.Digest)
}

func TestHashTypedDataRejectsBadPayload(t *testing.T) {
	handler := newTestServer(t)

	rec := postHash(t, handler, "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Well-formed JSON but the primary type is never declared.
	rec = postHash(t, handler, `{"types": {}, "primaryType": "Ghost", "domain": {}, "message": {}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMessage(t *testing.T) {
	handler := newTestServer(t)

	rec := postHash(t, handler, mailPayload)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, digest := range []string{wantDigest, strings.TrimPrefix(wantDigest, "0x")} {
		req := httptest.NewRequest(http.MethodGet, "/typed-data/v1.0/message/"+digest, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		body := map[string]any{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, wantDigest, body["digest"])
		require.Equal(t, "Mail", body["primaryType"])
		require.Contains(t, body, "message")
	}
}

func TestGetMessageUnknownDigest(t *testing.T) {
	handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/typed-data/v1.0/message/"+strings.Repeat("ab", 32), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDomainSeparator(t *testing.T) {
	handler := newTestServer(t)

	query := url.Values{}
	query.Set("name", "Ether Mail")
	query.Set("version", "1")
	query.Set("chainId", "1")
	query.Set("verifyingContract", "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC")

	req := httptest.NewRequest(http.MethodGet, "/typed-data/v1.0/domain/separator?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := common.DomainResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)", resp.EncodeType)
	require.Equal(t, wantDomainHash, resp.DomainHash)
}

func TestGetDomainSeparatorValidation(t *testing.T) {
	handler := newTestServer(t)

	cases := []string{
		"",                         // no fields at all
		"name=Mail&chainId=nope",   // unparseable chain id
		"verifyingContract=0x1234", // not an address
		"name=Mail&salt=zz",        // not hex
	}
	for _, raw := range cases {
		req := httptest.NewRequest(http.MethodGet, "/typed-data/v1.0/domain/separator?"+raw, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "query: %q", raw)
	}
}
