package booking

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"guestara/models"
	"guestara/services/automation"
	"guestara/services/session"

	"go.uber.org/zap"
)

// fakeStore is an in-memory session.Store keyed the same way the Redis
// implementation keys things: by session id, with a caller index on top.
type fakeStore struct {
	sessions map[string]*models.BookingSession
	byCaller map[string]string
	failAll  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*models.BookingSession{},
		byCaller: map[string]string{},
	}
}

var errStoreDown = errors.New("store unavailable")

func (f *fakeStore) Create(ctx context.Context, sess *models.BookingSession) error {
	if f.failAll {
		return errStoreDown
	}
	cp := *sess
	f.sessions[sess.SessionID] = &cp
	if sess.CallerPhone != "" {
		f.byCaller[sess.CallerPhone] = sess.SessionID
	}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, sessionID string) (*models.BookingSession, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (f *fakeStore) Update(ctx context.Context, sessionID string, mutate func(*models.BookingSession)) (*models.BookingSession, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	mutate(sess)
	cp := *sess
	return &cp, nil
}

func (f *fakeStore) Delete(ctx context.Context, sessionID string) error {
	if f.failAll {
		return errStoreDown
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return session.ErrNotFound
	}
	delete(f.byCaller, sess.CallerPhone)
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeStore) Extend(ctx context.Context, sessionID string, hours int) error {
	return nil
}

func (f *fakeStore) ResolveByCaller(ctx context.Context, callerPhone string) (*models.BookingSession, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	id, ok := f.byCaller[callerPhone]
	if !ok {
		return nil, session.ErrNotFound
	}
	return f.Get(ctx, id)
}

// fakeRates returns a fixed rate list or a fixed error.
type fakeRates struct {
	rates []models.Rate
	err   error
}

func (f *fakeRates) GetRates(ctx context.Context, hotelCode, checkInDate, checkOutDate string, adults, children int) ([]models.Rate, error) {
	return f.rates, f.err
}

// fakeAutomation records what was asked of it.
type fakeAutomation struct {
	handle       *automation.SessionHandle
	startErr     error
	selectCalls  int
	completeErr  error
	confirmation string
	completed    int
	fullFlows    int
}

func (f *fakeAutomation) StartSession(ctx context.Context, checkInDate, checkOutDate string) (*automation.SessionHandle, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	if f.handle == nil {
		return nil, errors.New("no browser capacity")
	}
	return f.handle, nil
}

func (f *fakeAutomation) SelectRoom(ctx context.Context, handle automation.SessionHandle, sel automation.RoomSelection) error {
	f.selectCalls++
	return nil
}

func (f *fakeAutomation) CompleteBooking(ctx context.Context, handle automation.SessionHandle, order automation.BookingOrder) (string, error) {
	f.completed++
	return f.confirmation, f.completeErr
}

func (f *fakeAutomation) CompleteBookingFull(ctx context.Context, order automation.BookingOrder) (string, error) {
	f.fullFlows++
	return f.confirmation, f.completeErr
}

func twoRates() []models.Rate {
	return []models.Rate{
		{
			Code:               "BAR",
			RoomCode:           "PRKG",
			Description:        "Best Available Rate",
			BasePriceBeforeTax: 395,
			Tax:                models.RateTax{TotalWithTaxesAndFees: 940},
		},
		{
			Code:               "BAR",
			RoomCode:           "JSTE",
			Description:        "Best Available Rate",
			BasePriceBeforeTax: 595,
			Tax:                models.RateTax{TotalWithTaxesAndFees: 1390},
		},
	}
}

func newTestService(store *fakeStore, rates *fakeRates, auto *fakeAutomation) *DefaultVoiceBookingService {
	return NewVoiceBookingService(store, rates, auto, "proper-sf", "San Francisco Proper Hotel", zap.NewNop())
}

const testCaller = "+14155550134"

func searchFirst(t *testing.T, svc *DefaultVoiceBookingService) *StepResult {
	t.Helper()
	result, err := svc.StartSearch(context.Background(), SearchRequest{
		CheckInDate:  "2026-09-20",
		CheckOutDate: "2026-09-22",
		Adults:       2,
		CallerPhone:  testCaller,
	})
	if err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if !result.Success {
		t.Fatalf("StartSearch failed: %s", result.Message)
	}
	return result
}

func TestStartSearchCreatesSessionWithNumberedOptions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})

	result := searchFirst(t, svc)

	if !strings.Contains(result.Message, "2 available options") {
		t.Errorf("message = %q, want option count", result.Message)
	}
	if !strings.Contains(result.Message, "1. Proper King Room") || !strings.Contains(result.Message, "2. Junior Suite") {
		t.Errorf("message missing numbered rooms: %q", result.Message)
	}

	sess, err := store.ResolveByCaller(context.Background(), "14155550134")
	if err != nil {
		t.Fatalf("session not resolvable by caller digits: %v", err)
	}
	if sess.Step != models.StepSearchCompleted {
		t.Errorf("step = %q", sess.Step)
	}
	if len(sess.RoomOptions) != 2 || sess.RoomOptions[0].ChoiceNumber != 1 || sess.RoomOptions[1].ChoiceNumber != 2 {
		t.Errorf("room options = %+v", sess.RoomOptions)
	}
	if !strings.HasPrefix(sess.SessionID, "booking_") {
		t.Errorf("session id = %q", sess.SessionID)
	}
}

func TestStartSearchRequiresDates(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRates{rates: twoRates()}, &fakeAutomation{})
	result, err := svc.StartSearch(context.Background(), SearchRequest{CheckOutDate: "2026-09-22"})
	if err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "check-in and check-out dates") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
}

func TestStartSearchRateFailureSpeaksApology(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{err: errors.New("upstream 503")}, &fakeAutomation{})

	result, err := svc.StartSearch(context.Background(), SearchRequest{
		CheckInDate: "2026-09-20", CheckOutDate: "2026-09-22", CallerPhone: testCaller,
	})
	if err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "trouble getting hotel rates") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
	if len(store.sessions) != 0 {
		t.Error("no session should be created when the rate fetch fails")
	}
}

func TestStartSearchNoAvailability(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{}, &fakeAutomation{})

	result, err := svc.StartSearch(context.Background(), SearchRequest{
		CheckInDate: "2026-09-20", CheckOutDate: "2026-09-22", CallerPhone: testCaller,
	})
	if err != nil {
		t.Fatalf("StartSearch: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "couldn't find any available rates") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
	if len(store.sessions) != 0 {
		t.Error("no session should be created when nothing is available")
	}
}

func TestStartSearchAutomationFailureIsBestEffort(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{startErr: errors.New("automation down")}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)

	result := searchFirst(t, svc)
	if !result.Success {
		t.Fatalf("search should succeed despite automation failure: %s", result.Message)
	}
	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.BrowserSessionID != "" {
		t.Error("handles should stay unset when the handshake fails")
	}
}

func TestStartSearchRecordsAutomationHandles(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{handle: &automation.SessionHandle{SessionID: "bs-1", CustomerID: "cust-1"}}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)

	searchFirst(t, svc)
	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.BrowserSessionID != "bs-1" || sess.BrowserCustomerID != "cust-1" {
		t.Errorf("handles = %q/%q", sess.BrowserSessionID, sess.BrowserCustomerID)
	}
}

func TestSelectRoomAdvancesSession(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{handle: &automation.SessionHandle{SessionID: "bs-1", CustomerID: "cust-1"}}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)
	searchFirst(t, svc)

	result, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 2, CallerPhone: testCaller})
	if err != nil {
		t.Fatalf("SelectRoom: %v", err)
	}
	if !result.Success {
		t.Fatalf("SelectRoom failed: %s", result.Message)
	}
	if !strings.Contains(result.Message, "Junior Suite") || !strings.Contains(result.Message, "$595 per night") {
		t.Errorf("message = %q", result.Message)
	}
	if result.Data["next_step"] != "collect_guest_and_payment_info" {
		t.Errorf("next_step = %v", result.Data["next_step"])
	}

	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.Step != models.StepRoomSelected || sess.RoomChoice != 2 {
		t.Errorf("step=%q choice=%d", sess.Step, sess.RoomChoice)
	}
	if sess.SelectedRoom == nil || sess.SelectedRoom.RoomCode != "JSTE" {
		t.Errorf("selected = %+v", sess.SelectedRoom)
	}
	if auto.selectCalls != 1 {
		t.Errorf("automation select calls = %d", auto.selectCalls)
	}
}

func TestSelectRoomOutOfRangeLeavesSessionUntouched(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})
	searchFirst(t, svc)

	result, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 3, CallerPhone: testCaller})
	if err != nil {
		t.Fatalf("SelectRoom: %v", err)
	}
	if result.Success {
		t.Fatal("choice 3 of 2 should be rejected")
	}
	if result.Message != "Please choose a room between 1 and 2 from the search results." {
		t.Errorf("message = %q", result.Message)
	}

	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.Step != models.StepSearchCompleted || sess.SelectedRoom != nil {
		t.Errorf("session mutated by rejected choice: step=%q", sess.Step)
	}
}

func TestSelectRoomWithoutSession(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRates{}, &fakeAutomation{})
	result, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller})
	if err != nil {
		t.Fatalf("SelectRoom: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "Please search for hotels first") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
}

func TestCompleteBookingHappyPath(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{
		handle:       &automation.SessionHandle{SessionID: "bs-1", CustomerID: "cust-1"},
		confirmation: "ABC123",
	}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)
	searchFirst(t, svc)
	if _, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller}); err != nil {
		t.Fatal(err)
	}

	req := completeRequest()
	req.CallerPhone = testCaller
	result, err := svc.CompleteBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if !result.Success {
		t.Fatalf("CompleteBooking failed: %s", result.Message)
	}
	if !strings.Contains(result.Message, "ABC123") || !strings.Contains(result.Message, "Jane") {
		t.Errorf("message = %q", result.Message)
	}
	if auto.completed != 1 || auto.fullFlows != 0 {
		t.Errorf("completed=%d fullFlows=%d, want the existing browser run used", auto.completed, auto.fullFlows)
	}

	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.Step != models.StepBookingCompleted || sess.Status != models.StatusCompleted {
		t.Errorf("step=%q status=%q", sess.Step, sess.Status)
	}
	if sess.ConfirmationNumber != "ABC123" || sess.UnconfirmedFallback {
		t.Errorf("confirmation=%q fallback=%v", sess.ConfirmationNumber, sess.UnconfirmedFallback)
	}
	if sess.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if sess.PaymentInfo == nil {
		t.Fatal("payment summary not stored")
	}
	if sess.PaymentInfo.CardLastFour != "1111" || sess.PaymentInfo.CardholderName != "Jane Doe" {
		t.Errorf("payment summary = %+v", sess.PaymentInfo)
	}
	// The session record keeps the redacted summary only.
	if strings.Contains(sess.PaymentInfo.CardLastFour, " ") || len(sess.PaymentInfo.CardLastFour) != 4 {
		t.Errorf("last four = %q", sess.PaymentInfo.CardLastFour)
	}
	// The caller's number from the call metadata wins over the spoken one.
	if sess.GuestInfo.Phone != "14155550134" {
		t.Errorf("guest phone = %q", sess.GuestInfo.Phone)
	}
}

func TestCompleteBookingWithoutSelectedRoom(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})
	searchFirst(t, svc)

	req := completeRequest()
	req.CallerPhone = testCaller
	result, err := svc.CompleteBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "select a room first") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
}

func TestCompleteBookingInvalidEmailBlocksAutomation(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{confirmation: "ABC123"}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)
	searchFirst(t, svc)
	if _, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller}); err != nil {
		t.Fatal(err)
	}

	req := completeRequest()
	req.CallerPhone = testCaller
	req.Email = "not-an-email"
	result, err := svc.CompleteBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if result.Success || result.Message != "Please provide a valid email address." {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
	if auto.completed != 0 || auto.fullFlows != 0 {
		t.Error("automation must not run for invalid input")
	}
	if fields, ok := result.Data["missing_fields"].([]string); !ok || len(fields) != 1 || fields[0] != "email" {
		t.Errorf("missing_fields = %v", result.Data["missing_fields"])
	}

	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if sess.Step != models.StepRoomSelected {
		t.Errorf("step = %q, want unchanged", sess.Step)
	}
}

var fallbackPattern = regexp.MustCompile(`^SF\d{6}$`)

func TestCompleteBookingFallsBackToSynthesizedConfirmation(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{completeErr: errors.New("browser crashed")}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)
	searchFirst(t, svc)
	if _, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller}); err != nil {
		t.Fatal(err)
	}

	req := completeRequest()
	req.CallerPhone = testCaller
	result, err := svc.CompleteBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if !result.Success {
		t.Fatalf("fallback path should still confirm: %s", result.Message)
	}
	confirmation, _ := result.Data["confirmation_number"].(string)
	if !fallbackPattern.MatchString(confirmation) {
		t.Errorf("confirmation = %q, want SF followed by six digits", confirmation)
	}
	if auto.fullFlows != 1 {
		t.Errorf("fullFlows = %d, want the one-shot flow when no handle exists", auto.fullFlows)
	}

	sess, _ := store.ResolveByCaller(context.Background(), "14155550134")
	if !sess.UnconfirmedFallback {
		t.Error("fallback flag not recorded")
	}
}

func TestCompleteBookingAlreadyConfirmed(t *testing.T) {
	store := newFakeStore()
	auto := &fakeAutomation{confirmation: "ABC123"}
	svc := newTestService(store, &fakeRates{rates: twoRates()}, auto)
	searchFirst(t, svc)
	if _, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller}); err != nil {
		t.Fatal(err)
	}

	req := completeRequest()
	req.CallerPhone = testCaller
	if _, err := svc.CompleteBooking(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	result, err := svc.CompleteBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("second CompleteBooking: %v", err)
	}
	if result.Success || !strings.Contains(result.Message, "already confirmed") || !strings.Contains(result.Message, "ABC123") {
		t.Errorf("got success=%v message=%q", result.Success, result.Message)
	}
	if got := auto.completed + auto.fullFlows; got != 1 {
		t.Errorf("automation ran %d times, want 1", got)
	}
}

func TestResetClearsSession(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})
	searchFirst(t, svc)

	result, err := svc.Reset(context.Background(), ResetRequest{CallerPhone: testCaller})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !result.Success || result.Data["session_cleared"] != true {
		t.Errorf("got success=%v data=%v", result.Success, result.Data)
	}
	if len(store.sessions) != 0 || len(store.byCaller) != 0 {
		t.Error("session and caller index should both be gone")
	}
}

func TestResetWithoutSessionStillSucceeds(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeRates{}, &fakeAutomation{})
	result, err := svc.Reset(context.Background(), ResetRequest{CallerPhone: testCaller})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !result.Success {
		t.Fatal("reset is always a success for the caller")
	}
	if result.Data["session_cleared"] != false {
		t.Errorf("session_cleared = %v, want false", result.Data["session_cleared"])
	}
}

func TestStoreFaultSurfacesAsError(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})

	if _, err := svc.StartSearch(context.Background(), SearchRequest{
		CheckInDate: "2026-09-20", CheckOutDate: "2026-09-22", CallerPhone: testCaller,
	}); err == nil {
		t.Error("StartSearch should propagate store faults")
	}
	if _, err := svc.SelectRoom(context.Background(), SelectRoomRequest{RoomChoice: 1, CallerPhone: testCaller}); err == nil {
		t.Error("SelectRoom should propagate store faults")
	}
}

func TestMostRecentSearchWinsForCaller(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeRates{rates: twoRates()}, &fakeAutomation{})

	searchFirst(t, svc)
	first, _ := store.ResolveByCaller(context.Background(), "14155550134")

	// A second search from the same number repoints the caller index.
	second := &models.BookingSession{
		SessionID:   "booking_9999999999",
		CallerPhone: "14155550134",
		Step:        models.StepSearchCompleted,
		RoomOptions: buildRoomOptions(twoRates()),
	}
	if err := store.Create(context.Background(), second); err != nil {
		t.Fatal(err)
	}

	resolved, err := store.ResolveByCaller(context.Background(), "14155550134")
	if err != nil {
		t.Fatal(err)
	}
	if resolved.SessionID != second.SessionID {
		t.Errorf("resolved %q, want the newer session (old was %q)", resolved.SessionID, first.SessionID)
	}
}
