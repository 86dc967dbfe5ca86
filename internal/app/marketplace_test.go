package app_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/payment"
	"businessconnect_backend/internal/testhelpers"
)

// subscribe buys plan for the token holder through initiate + webhook.
func (ts *testServer) subscribe(t *testing.T, token, plan string, amount int64) {
	t.Helper()

	res, env := ts.send(t, http.MethodPost, "/api/subscriptions/initiate", token, map[string]string{"plan": plan})
	require.Equal(t, http.StatusCreated, res.StatusCode, env.Message)

	var initiated struct {
		TransactionID string `json:"transactionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &initiated))

	ts.Gateway.SetStatus(initiated.TransactionID, payment.StatusSucceeded, amount)
	form := url.Values{"cpm_trans_id": {initiated.TransactionID}}
	res, env = ts.postWebhook(t, form, payment.ComputeToken(webhookSecret, form))
	require.Equal(t, http.StatusOK, res.StatusCode, env.Message)
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()

	testhelpers.CreateUser(t, ts.DB, &models.User{
		Email:        "admin@businessconnect.sn",
		PasswordHash: "admin-password",
		Role:         models.UserRoleAdmin,
	})
	res, env := ts.send(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@businessconnect.sn",
		"password": "admin-password",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, env.Message)

	var auth struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.AccessToken
}

func (ts *testServer) uploadImage(t *testing.T, token, itemID, contentType string, data []byte) (*http.Response, envelope) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/api/marketplace/"+itemID+"/images", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return ts.do(t, req)
}

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for x := 0; x < 400; x++ {
		for y := 0; y < 300; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMarketplace_ModerationFlow(t *testing.T) {
	ts := newTestServer(t)

	sellerToken, _ := ts.register(t, "vendeur@test.sn", models.UserRoleUser)
	buyerToken, _ := ts.register(t, "acheteur@test.sn", models.UserRoleUser)
	admin := ts.adminToken(t)

	itemBody := map[string]interface{}{
		"title":       "Ordinateur portable",
		"description": "HP EliteBook, 16 Go de RAM, très bon état.",
		"category":    "informatique",
		"price":       250000,
		"location":    "Thiès",
	}

	res, env := ts.send(t, http.MethodPost, "/api/marketplace", sellerToken, itemBody)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "publishing needs an active subscription")

	ts.subscribe(t, sellerToken, "annonceur", 5000)

	res, env = ts.send(t, http.MethodPost, "/api/marketplace", sellerToken, itemBody)
	require.Equal(t, http.StatusCreated, res.StatusCode, env.Message)

	var item struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Images []struct {
			URL          string `json:"url"`
			ThumbnailURL string `json:"thumbnailUrl"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "pending", item.Status)

	res, _ = ts.send(t, http.MethodGet, "/api/marketplace/"+item.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "pending items are hidden from the public")
	res, _ = ts.send(t, http.MethodGet, "/api/marketplace/"+item.ID, sellerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = ts.send(t, http.MethodPut, "/api/marketplace/"+item.ID+"/status", sellerToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, env = ts.send(t, http.MethodPut, "/api/marketplace/"+item.ID+"/status", admin, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, res.StatusCode, env.Message)

	res, env = ts.send(t, http.MethodGet, "/api/marketplace/"+item.ID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(env.Data), `"status":"approved"`)

	res, _ = ts.send(t, http.MethodPut, "/api/marketplace/"+item.ID, buyerToken, map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.send(t, http.MethodPost, "/api/marketplace/"+item.ID+"/report", buyerToken, map[string]string{"reason": "Arnaque"})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	res, _ = ts.send(t, http.MethodPost, "/api/marketplace/"+item.ID+"/report", buyerToken, map[string]string{"reason": "Arnaque"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// the seller is told about the moderation decision
	assert.Eventually(t, func() bool {
		_, env := ts.send(t, http.MethodGet, "/api/notifications/unread-count", sellerToken, nil)
		var count struct {
			Count int64 `json:"count"`
		}
		_ = json.Unmarshal(env.Data, &count)
		return count.Count >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMarketplace_ImageUpload(t *testing.T) {
	ts := newTestServer(t)

	sellerToken, _ := ts.register(t, "photos@test.sn", models.UserRoleUser)
	ts.subscribe(t, sellerToken, "annonceur", 5000)

	res, env := ts.send(t, http.MethodPost, "/api/marketplace", sellerToken, map[string]interface{}{
		"title":       "Boubou brodé",
		"description": "Grand boubou en bazin riche, brodé main.",
		"category":    "mode",
		"price":       45000,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, env.Message)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	res, _ = ts.uploadImage(t, sellerToken, created.ID, "application/pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)

	res, env = ts.uploadImage(t, sellerToken, created.ID, "image/png", samplePNG(t))
	require.Equal(t, http.StatusCreated, res.StatusCode, env.Message)

	var item struct {
		Images []struct {
			URL          string `json:"url"`
			ThumbnailURL string `json:"thumbnailUrl"`
		} `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	require.Len(t, item.Images, 1)
	assert.Contains(t, item.Images[0].ThumbnailURL, "_thumb")

	res, env = ts.send(t, http.MethodDelete, "/api/marketplace/"+created.ID+"/images/0", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Empty(t, item.Images)
}

func TestForum_TopicLifecycle(t *testing.T) {
	ts := newTestServer(t)

	authorToken, _ := ts.register(t, "auteur@test.sn", models.UserRoleUser)
	readerToken, _ := ts.register(t, "lecteur@test.sn", models.UserRoleUser)

	res, env := ts.send(t, http.MethodPost, "/api/forum/topics", authorToken, map[string]interface{}{
		"title":    "Stage à Dakar",
		"content":  "Quelles entreprises prennent des stagiaires en informatique ?",
		"category": "emploi",
		"tags":     []string{"stage", "dakar"},
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, env.Message)
	var topic struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &topic))

	res, _ = ts.send(t, http.MethodPost, "/api/forum/topics/"+topic.ID+"/replies", readerToken, map[string]string{"content": "Essayez Wave et Orange."})
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	res, env = ts.send(t, http.MethodPost, "/api/forum/topics/"+topic.ID+"/like", readerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, env.Message)
	assert.JSONEq(t, `{"liked":true,"likes":1}`, string(env.Data))

	res, _ = ts.send(t, http.MethodPut, "/api/forum/topics/"+topic.ID, readerToken, map[string]string{"title": "Détourné"})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, env = ts.send(t, http.MethodGet, "/api/forum/topics/"+topic.ID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(env.Data), "Essayez Wave et Orange.")

	res, _ = ts.send(t, http.MethodDelete, "/api/forum/topics/"+topic.ID, authorToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = ts.send(t, http.MethodGet, "/api/forum/topics/"+topic.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
