package controller

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	gatewayv1 "sigs.k8s.io/gateway-api/apis/v1"

	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/config"
	"github.com/yuriy-kovalchuk/yk-dns-upsert/internal/dns"
)

// mockDNSProvider records DNS operations for test assertions.
type mockDNSProvider struct {
	mu           sync.Mutex
	existingKeys map[dns.ZoneRecordKey]bool // keys that Exists returns true for
	reconciled   []dns.DesiredRecord
	deletedKeys  []dns.ZoneRecordKey
	result       *dns.Result // returned by Reconcile when set
}

func (m *mockDNSProvider) Exists(_ context.Context, key dns.ZoneRecordKey) (bool, error) {
	return m.existingKeys[key], nil
}

func (m *mockDNSProvider) Reconcile(_ context.Context, desired dns.DesiredRecord) dns.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciled = append(m.reconciled, desired)
	if m.result != nil {
		return *m.result
	}
	return dns.Result{Outcome: dns.Applied}
}

func (m *mockDNSProvider) Delete(_ context.Context, key dns.ZoneRecordKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedKeys = append(m.deletedKeys, key)
	return nil
}

func (m *mockDNSProvider) DefaultTTL() int { return dns.MinTTL }

func newTestDomainMap(t *testing.T) *config.DomainMap {
	t.Helper()
	content := "my-domain1.com: 10.0.8.100\nmy-domain2.it: 10.0.9.50\nmy-app.dev: app.vercel-dns.com\n"
	path := filepath.Join(t.TempDir(), "domain-map.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	dm, err := config.LoadDomainMap(path)
	if err != nil {
		t.Fatal(err)
	}
	return dm
}

func newTestReconciler(t *testing.T, route *gatewayv1.HTTPRoute, mock *mockDNSProvider, upsert bool) (*HTTPRouteReconciler, client.Client) {
	t.Helper()
	scheme := runtime.NewScheme()
	if err := gatewayv1.Install(scheme); err != nil {
		t.Fatalf("failed to install gateway-api scheme: %v", err)
	}

	fakeClient := fake.NewClientBuilder().
		WithScheme(scheme).
		WithObjects(route).
		Build()

	return &HTTPRouteReconciler{
		Client:    fakeClient,
		APIReader: fakeClient,
		Log:       zap.New(zap.UseDevMode(true)),
		DomainMap: newTestDomainMap(t),
		DNS:       mock,
		Upsert:    upsert,
	}, fakeClient
}

func requestFor(route *gatewayv1.HTTPRoute) ctrl.Request {
	return ctrl.Request{
		NamespacedName: types.NamespacedName{
			Name:      route.Name,
			Namespace: route.Namespace,
		},
	}
}

func testRoute(name string, hostnames ...gatewayv1.Hostname) *gatewayv1.HTTPRoute {
	return &gatewayv1.HTTPRoute{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: "default",
		},
		Spec: gatewayv1.HTTPRouteSpec{
			Hostnames: hostnames,
		},
	}
}

func managedAnnotation(t *testing.T, c client.Client, route *gatewayv1.HTTPRoute) map[string]string {
	t.Helper()
	var got gatewayv1.HTTPRoute
	if err := c.Get(context.Background(), requestFor(route).NamespacedName, &got); err != nil {
		t.Fatalf("failed to get route: %v", err)
	}
	out := map[string]string{}
	if val, ok := got.Annotations[managedRecordsAnnotation]; ok {
		if err := json.Unmarshal([]byte(val), &out); err != nil {
			t.Fatalf("invalid managed-records annotation %q: %v", val, err)
		}
	}
	return out
}

func TestHTTPRouteReconciler_Reconcile(t *testing.T) {
	route := testRoute("test-route", "app.my-domain1.com")
	mock := &mockDNSProvider{}
	reconciler, c := newTestReconciler(t, route, mock, false)
	req := requestFor(route)

	// First reconcile adds the finalizer
	result, err := reconciler.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Requeue {
		t.Error("expected no requeue")
	}
	if len(mock.reconciled) != 0 {
		t.Fatalf("expected no DNS calls before the finalizer is set, got %d", len(mock.reconciled))
	}

	// Second reconcile processes the hostnames
	result, err = reconciler.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on second reconcile: %v", err)
	}
	if result.Requeue {
		t.Error("expected no requeue")
	}

	if len(mock.reconciled) != 1 {
		t.Fatalf("expected 1 reconciled record, got %d", len(mock.reconciled))
	}
	rec := mock.reconciled[0]
	wantKey := dns.ZoneRecordKey{RootDomain: "my-domain1.com", Type: "A", Name: "app"}
	if rec.Key != wantKey {
		t.Errorf("expected key %s, got %s", wantKey, rec.Key)
	}
	if rec.Value != "10.0.8.100" {
		t.Errorf("expected value '10.0.8.100', got %q", rec.Value)
	}

	managed := managedAnnotation(t, c, route)
	if managed["app.my-domain1.com"] != "A" {
		t.Errorf("expected managed-records annotation to track the A record, got %v", managed)
	}
}

func TestHTTPRouteReconciler_CNAMETarget(t *testing.T) {
	route := testRoute("cname-route", "www.my-app.dev")
	mock := &mockDNSProvider{}
	reconciler, _ := newTestReconciler(t, route, mock, true)
	req := requestFor(route)

	for range 2 {
		if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(mock.reconciled) != 1 {
		t.Fatalf("expected 1 reconciled record, got %d", len(mock.reconciled))
	}
	wantKey := dns.ZoneRecordKey{RootDomain: "my-app.dev", Type: "CNAME", Name: "www"}
	if mock.reconciled[0].Key != wantKey {
		t.Errorf("expected key %s, got %s", wantKey, mock.reconciled[0].Key)
	}
}

func TestHTTPRouteReconciler_WildcardHostname(t *testing.T) {
	route := testRoute("wildcard-route", "*.my-domain1.com")
	mock := &mockDNSProvider{}
	reconciler, c := newTestReconciler(t, route, mock, true)
	req := requestFor(route)

	for range 2 {
		if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(mock.reconciled) != 1 {
		t.Fatalf("expected 1 reconciled record, got %d", len(mock.reconciled))
	}
	wantKey := dns.ZoneRecordKey{RootDomain: "my-domain1.com", Type: "A", Name: "*"}
	if mock.reconciled[0].Key != wantKey {
		t.Errorf("expected key %s, got %s", wantKey, mock.reconciled[0].Key)
	}
	if managed := managedAnnotation(t, c, route); managed["*.my-domain1.com"] != "A" {
		t.Errorf("expected wildcard hostname to be tracked, got %v", managed)
	}
}

func TestHTTPRouteReconciler_ReconcileUnknownDomain(t *testing.T) {
	route := testRoute("unknown-route", "app.unknown.com")
	mock := &mockDNSProvider{}
	reconciler, _ := newTestReconciler(t, route, mock, false)
	req := requestFor(route)

	// First reconcile adds the finalizer
	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second reconcile processes hostnames, no match expected
	result, err := reconciler.Reconcile(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Requeue {
		t.Error("expected no requeue")
	}

	if len(mock.reconciled) != 0 {
		t.Errorf("expected 0 reconciled records for unknown domain, got %d", len(mock.reconciled))
	}
}

func TestHTTPRouteReconciler_UpsertEnabled(t *testing.T) {
	route := testRoute("upsert-route", "app.my-domain1.com")
	mock := &mockDNSProvider{
		existingKeys: map[dns.ZoneRecordKey]bool{
			{RootDomain: "my-domain1.com", Type: "A", Name: "app"}: true,
		},
	}
	reconciler, _ := newTestReconciler(t, route, mock, true)
	req := requestFor(route)

	// First reconcile adds the finalizer
	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second reconcile replaces the record set even though it exists
	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.reconciled) != 1 {
		t.Fatalf("expected 1 reconciled record, got %d", len(mock.reconciled))
	}
}

func TestHTTPRouteReconciler_CreateSkipsExisting(t *testing.T) {
	route := testRoute("skip-route", "app.my-domain1.com")
	mock := &mockDNSProvider{
		existingKeys: map[dns.ZoneRecordKey]bool{
			{RootDomain: "my-domain1.com", Type: "A", Name: "app"}: true,
		},
	}
	reconciler, _ := newTestReconciler(t, route, mock, false)
	req := requestFor(route)

	// First reconcile adds the finalizer
	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second reconcile skips existing record
	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.reconciled) != 0 {
		t.Errorf("expected 0 reconciled records for existing host, got %d", len(mock.reconciled))
	}
}

func TestHTTPRouteReconciler_RejectedResultRequeues(t *testing.T) {
	route := testRoute("rejected-route", "app.my-domain1.com")
	mock := &mockDNSProvider{
		result: &dns.Result{Outcome: dns.RejectedByProvider, StatusCode: 401, Body: `{"code":"UNABLE_TO_AUTHENTICATE"}`},
	}
	reconciler, c := newTestReconciler(t, route, mock, true)
	req := requestFor(route)

	if _, err := reconciler.Reconcile(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := reconciler.Reconcile(context.Background(), req); err == nil {
		t.Fatal("expected error for rejected reconcile")
	}

	if managed := managedAnnotation(t, c, route); len(managed) != 0 {
		t.Errorf("expected no managed records after a rejected reconcile, got %v", managed)
	}
}

func TestHTTPRouteReconciler_RemovesStaleRecords(t *testing.T) {
	route := testRoute("stale-route", "app.my-domain1.com")
	route.Finalizers = []string{finalizerName}
	route.Annotations = map[string]string{
		managedRecordsAnnotation: `{"app.my-domain1.com":"CNAME","old.my-domain2.it":"A"}`,
	}
	mock := &mockDNSProvider{}
	reconciler, c := newTestReconciler(t, route, mock, true)

	if _, err := reconciler.Reconcile(context.Background(), requestFor(route)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []dns.ZoneRecordKey{
		{RootDomain: "my-domain1.com", Type: "CNAME", Name: "app"},
		{RootDomain: "my-domain2.it", Type: "A", Name: "old"},
	}
	if len(mock.deletedKeys) != len(want) {
		t.Fatalf("expected %d deleted keys, got %v", len(want), mock.deletedKeys)
	}
	for i := range want {
		if mock.deletedKeys[i] != want[i] {
			t.Errorf("deleted key %d: expected %s, got %s", i, want[i], mock.deletedKeys[i])
		}
	}

	managed := managedAnnotation(t, c, route)
	if len(managed) != 1 || managed["app.my-domain1.com"] != "A" {
		t.Errorf("unexpected managed-records annotation %v", managed)
	}
}

func TestHTTPRouteReconciler_Deletion(t *testing.T) {
	now := metav1.Now()
	route := testRoute("delete-route", "app.my-domain1.com", "api.my-domain2.it")
	route.Finalizers = []string{finalizerName}
	route.DeletionTimestamp = &now
	mock := &mockDNSProvider{}
	reconciler, _ := newTestReconciler(t, route, mock, false)

	result, err := reconciler.Reconcile(context.Background(), requestFor(route))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Requeue {
		t.Error("expected no requeue")
	}

	if len(mock.deletedKeys) != 2 {
		t.Fatalf("expected 2 deleted keys, got %d", len(mock.deletedKeys))
	}
	if got := mock.deletedKeys[0]; got != (dns.ZoneRecordKey{RootDomain: "my-domain2.it", Type: "A", Name: "api"}) {
		t.Errorf("unexpected first deleted key %s", got)
	}
	if got := mock.deletedKeys[1]; got != (dns.ZoneRecordKey{RootDomain: "my-domain1.com", Type: "A", Name: "app"}) {
		t.Errorf("unexpected second deleted key %s", got)
	}
	if len(mock.reconciled) != 0 {
		t.Errorf("expected no reconcile calls during deletion, got %d", len(mock.reconciled))
	}
}

func TestRouteHostnames(t *testing.T) {
	route := testRoute("hosts", "App.My-Domain1.com", "app.my-domain1.com.", "*.my-domain1.com", "", "api.my-domain2.it")
	got := routeHostnames(route)
	want := []string{"app.my-domain1.com", "*.my-domain1.com", "api.my-domain2.it"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("host %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
