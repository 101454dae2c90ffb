package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// requestPass drives POST /api/passes and returns the new pass id.
func requestPass(t *testing.T, r *gin.Engine, token string, routeID uint, passType string) uint {
	t.Helper()
	w := doJSON(r, "POST", "/api/passes", token, gin.H{
		"route_id":  routeID,
		"pass_type": passType,
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	return uint(decode(t, w)["pass_id"].(float64))
}

func payPass(t *testing.T, r *gin.Engine, token string, passID uint) string {
	t.Helper()
	w := doJSON(r, "POST", "/api/payments", token, gin.H{
		"pass_id":        passID,
		"payment_method": "mobile_money",
	})
	require.Equal(t, 200, w.Code, w.Body.String())
	return decode(t, w)["transaction_id"].(string)
}

func TestPassLifecycleScenario(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	// Request a daily pass: amount captured from the route's daily price.
	passID := requestPass(t, r, student, route.ID, "daily")
	var pass models.Pass
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, 20.0, pass.Amount)
	assert.Equal(t, "pending", pass.PaymentStatus)
	assert.Equal(t, "pending", pass.ApprovalStatus)
	assert.False(t, pass.IsActive)

	// Pay: ledger row appears with the pass amount, pass flips to paid.
	txID := payPass(t, r, student, passID)
	var payment models.Payment
	require.NoError(t, db.Where("pass_id = ?", passID).First(&payment).Error)
	assert.Equal(t, 20.0, payment.Amount)
	assert.Equal(t, txID, payment.TransactionID)
	assert.Equal(t, "success", payment.Status)
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, "paid", pass.PaymentStatus)

	// Approve: the whole activation tuple lands together.
	w := doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), admin, gin.H{"action": "approve"})
	require.Equal(t, 200, w.Code, w.Body.String())
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, "approved", pass.ApprovalStatus)
	assert.True(t, pass.IsActive)
	require.NotNil(t, pass.ActiveAt)
	require.NotNil(t, pass.ExpiresAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 6, 0), *pass.ExpiresAt, time.Minute)
	assert.WithinDuration(t, pass.ActiveAt.AddDate(0, 6, 0), *pass.ExpiresAt, time.Second)
}

func TestCreatePassValidation(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	w := doJSON(r, "POST", "/api/passes", student, gin.H{"route_id": route.ID, "pass_type": "monthly"})
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "POST", "/api/passes", student, gin.H{"pass_type": "daily"})
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "POST", "/api/passes", student, gin.H{"route_id": route.ID + 99, "pass_type": "daily"})
	assert.Equal(t, 404, w.Code)
}

func TestCreatePassAuth(t *testing.T) {
	r, db := setupRouter(t)
	admin := registerAdmin(t, r, "admin@campus.edu", "checking")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	unauthenticated := doJSON(r, "POST", "/api/passes", "", gin.H{"route_id": route.ID, "pass_type": "daily"})
	assert.Equal(t, 401, unauthenticated.Code)

	asAdmin := doJSON(r, "POST", "/api/passes", admin, gin.H{"route_id": route.ID, "pass_type": "daily"})
	assert.Equal(t, 403, asAdmin.Code)
}

func TestOneActivePassRule(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	// A pending (not yet active) pass does not block another request.
	first := requestPass(t, r, student, route.ID, "daily")
	second := requestPass(t, r, student, route.ID, "weekly")

	payPass(t, r, student, first)
	w := doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", first), admin, gin.H{"action": "approve"})
	require.Equal(t, 200, w.Code)

	// With an active pass, further requests conflict.
	w = doJSON(r, "POST", "/api/passes", student, gin.H{"route_id": route.ID, "pass_type": "daily"})
	require.Equal(t, 409, w.Code)
	assert.Equal(t, "You already have an active pass", decode(t, w)["error"])

	// Once the active pass expires, requesting works again. Expiry is a
	// read-time fact, so aging the row is enough.
	expired := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Pass{}).Where("id = ?", first).
		Update("expires_at", expired).Error)
	requestPass(t, r, student, route.ID, "daily")

	_ = second
}

func TestStudentsCannotSeeOthersPasses(t *testing.T) {
	r, db := setupRouter(t)
	studentA := registerStudent(t, r, "a@campus.edu")
	studentB := registerStudent(t, r, "b@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	passA := requestPass(t, r, studentA, route.ID, "daily")

	w := doJSON(r, "GET", "/api/passes", studentB, nil)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode(t, w)["passes"])

	w = doJSON(r, "GET", "/api/passes", studentA, nil)
	require.Equal(t, 200, w.Code)
	passes := decode(t, w)["passes"].([]interface{})
	require.Len(t, passes, 1)
	row := passes[0].(map[string]interface{})
	assert.Equal(t, float64(passA), row["id"])
	assert.Equal(t, "Campus Loop", row["route_name"])
	// Students don't get user columns joined in.
	assert.NotContains(t, row, "user_name")

	// Admin sees all passes with user context.
	w = doJSON(r, "GET", "/api/passes", admin, nil)
	require.Equal(t, 200, w.Code)
	passes = decode(t, w)["passes"].([]interface{})
	require.Len(t, passes, 1)
	assert.Equal(t, "a@campus.edu", passes[0].(map[string]interface{})["user_email"])
}

func TestDecideRequiresPayment(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	passID := requestPass(t, r, student, route.ID, "daily")

	// Unpaid passes cannot be decided, in either direction.
	for _, action := range []string{"approve", "reject"} {
		w := doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), admin, gin.H{"action": action})
		assert.Equal(t, 409, w.Code, action)
	}

	var pass models.Pass
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, "pending", pass.ApprovalStatus)
	assert.False(t, pass.IsActive)
}

func TestDecisionsAreFinal(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	passID := requestPass(t, r, student, route.ID, "daily")
	payPass(t, r, student, passID)

	w := doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), admin, gin.H{"action": "reject"})
	require.Equal(t, 200, w.Code)

	// Rejecting then approving must fail; the decision is terminal.
	w = doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), admin, gin.H{"action": "approve"})
	require.Equal(t, 409, w.Code)

	var pass models.Pass
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, "rejected", pass.ApprovalStatus)
	assert.False(t, pass.IsActive)
	assert.Nil(t, pass.ActiveAt)
	assert.Nil(t, pass.ExpiresAt)
}

func TestDecideValidation(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)
	passID := requestPass(t, r, student, route.ID, "daily")

	w := doJSON(r, "PATCH", "/api/passes/abc", admin, gin.H{"action": "approve"})
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), admin, gin.H{"action": "activate"})
	assert.Equal(t, 400, w.Code)

	w = doJSON(r, "PATCH", "/api/passes/9999", admin, gin.H{"action": "approve"})
	assert.Equal(t, 404, w.Code)

	w = doJSON(r, "PATCH", fmt.Sprintf("/api/passes/%d", passID), student, gin.H{"action": "approve"})
	assert.Equal(t, 403, w.Code)
}

func TestDeletePassCascades(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	admin := registerAdmin(t, r, "admin@campus.edu", "administrator")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	passID := requestPass(t, r, student, route.ID, "daily")
	payPass(t, r, student, passID)

	w := doJSON(r, "DELETE", fmt.Sprintf("/api/passes/%d", passID), admin, nil)
	require.Equal(t, 200, w.Code)

	// The ledger holds no entry for the deleted pass.
	w = doJSON(r, "GET", "/api/payments", admin, nil)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode(t, w)["payments"])

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("pass_id = ?", passID).Count(&count).Error)
	assert.Zero(t, count)

	err := db.First(&models.Pass{}, passID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Second delete reports the pass as gone and corrupts nothing.
	w = doJSON(r, "DELETE", fmt.Sprintf("/api/passes/%d", passID), admin, nil)
	assert.Equal(t, 404, w.Code)

	w = doJSON(r, "DELETE", fmt.Sprintf("/api/passes/%d", passID), student, nil)
	assert.Equal(t, 403, w.Code)
}

func TestPassAmountSurvivesRoutePriceEdit(t *testing.T) {
	r, db := setupRouter(t)
	student := registerStudent(t, r, "asha@campus.edu")
	route := seedRoute(t, db, "Campus Loop", 20, 100)

	passID := requestPass(t, r, student, route.ID, "daily")

	require.NoError(t, db.Model(&models.Route{}).Where("id = ?", route.ID).
		Updates(map[string]interface{}{"daily_price": 55, "weekly_price": 200}).Error)

	var pass models.Pass
	require.NoError(t, db.First(&pass, passID).Error)
	assert.Equal(t, 20.0, pass.Amount)

	// New passes pick up the new price.
	otherStudent := registerStudent(t, r, "b@campus.edu")
	newPassID := requestPass(t, r, otherStudent, route.ID, "daily")
	var newPass models.Pass
	require.NoError(t, db.First(&newPass, newPassID).Error)
	assert.Equal(t, 55.0, newPass.Amount)
}
