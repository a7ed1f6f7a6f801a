package validator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bindBody(t *testing.T, body string, dst interface{}) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c, dst)
}

func TestBindReportsJSONFieldNames(t *testing.T) {
	var req model.CreateExamRequest
	fields := bindBody(t, `{"title":"ab","kind":"mixed","duration_minutes":0,"questions":[{"text":"","kind":"essay"}]}`, &req)

	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "duration_minutes")
	assert.Contains(t, fields, "questions[0].text")
	assert.Contains(t, fields, "questions[0].kind")
}

func TestBindAcceptsValidPayload(t *testing.T) {
	var req model.TopicRequest
	fields := bindBody(t, `{"title":"Geometry"}`, &req)
	assert.Nil(t, fields)
	assert.Equal(t, "Geometry", req.Title)
}

func TestBindSyntaxError(t *testing.T) {
	var req model.TopicRequest
	fields := bindBody(t, `{"title":`, &req)
	assert.Contains(t, fields, "detail")
}

func TestBindQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?kind=essay&topic=Physics", nil)

	var filter model.BankQuestionFilter
	fields := BindQuery(c, &filter)
	assert.Contains(t, fields, "kind")
}
