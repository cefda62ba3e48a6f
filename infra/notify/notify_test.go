package notify

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ananya-001/FleetFlow/core/events"
	"github.com/ananya-001/FleetFlow/core/fleet"
)

type publishedMsg struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type mockClient struct {
	opts        *paho.ClientOptions
	published   []publishedMsg
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, publishedMsg{topic, qos, retained, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return dummyToken{err: err}
	}
	return dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func sampleEvent() events.TransitionEvent {
	return events.TransitionEvent{
		TripID:    "trip-1",
		VehicleID: "veh-1",
		DriverID:  "drv-1",
		From:      fleet.TripDraft,
		To:        fleet.TripAssigned,
		Actor:     "dispatcher-1",
		Attempts:  1,
		At:        time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNotifyPublishesTransition(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	n, err := NewMQTTNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "ff", QoS: 1, Retain: true})
	if err != nil {
		t.Fatalf("NewMQTTNotifier: %v", err)
	}
	defer n.Close()

	if err := n.NotifyTransition(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("NotifyTransition: %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(mc.published))
	}
	msg := mc.published[0]
	if msg.topic != "fleet/trips/trip-1/status" {
		t.Fatalf("unexpected topic %s", msg.topic)
	}
	if msg.qos != 1 || !msg.retain {
		t.Fatalf("qos/retain not applied: %+v", msg)
	}
	var wire transitionMessage
	if err := json.Unmarshal(msg.payload, &wire); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if wire.TripID != "trip-1" || wire.From != "draft" || wire.To != "assigned" || wire.Actor != "dispatcher-1" {
		t.Fatalf("unexpected payload: %+v", wire)
	}
	if wire.Timestamp != sampleEvent().At.UnixMilli() {
		t.Fatalf("unexpected timestamp %d", wire.Timestamp)
	}
}

func TestNotifyRetriesOnPublishError(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMockClient(t, mc)
	n, err := NewMQTTNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "ff", MaxRetries: 2, BackoffMS: 1})
	if err != nil {
		t.Fatalf("NewMQTTNotifier: %v", err)
	}
	defer n.Close()

	if err := n.NotifyTransition(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("NotifyTransition: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(mc.published))
	}
}

func TestNotifyExhaustsRetries(t *testing.T) {
	fail := fmt.Errorf("broker gone")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	n, err := NewMQTTNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "ff", MaxRetries: 1, BackoffMS: 1})
	if err != nil {
		t.Fatalf("NewMQTTNotifier: %v", err)
	}
	defer n.Close()

	if err := n.NotifyTransition(context.Background(), sampleEvent()); err == nil {
		t.Fatal("expected publish error after retries")
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(mc.published))
	}
}

func TestNotifyHonorsCancelledContext(t *testing.T) {
	fail := fmt.Errorf("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail, fail}}
	withMockClient(t, mc)
	n, err := NewMQTTNotifier(Config{Broker: "tcp://localhost:1883", ClientID: "ff", MaxRetries: 3, BackoffMS: 50})
	if err != nil {
		t.Fatalf("NewMQTTNotifier: %v", err)
	}
	defer n.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.NotifyTransition(ctx, sampleEvent()); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mc.published) != 1 {
		t.Fatalf("expected backoff to stop after 1 attempt, got %d", len(mc.published))
	}
}

func TestNewClientOptionsAuthAndWill(t *testing.T) {
	opts, err := NewClientOptions(Config{
		Broker: "tcp://localhost:1883", ClientID: "ff",
		Username: "u", Password: "p",
		LWTTopic: "fleet/engine/status", LWTPayload: "offline",
	})
	if err != nil {
		t.Fatalf("NewClientOptions: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatal("auth not set")
	}
	if !opts.WillEnabled || opts.WillTopic != "fleet/engine/status" || string(opts.WillPayload) != "offline" {
		t.Fatal("will options incorrect")
	}
}

func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	for path, data := range map[string][]byte{certFile: certPEM, keyFile: keyPEM, caFile: certPEM} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 || tlsCfg.RootCAs == nil {
		t.Fatal("tls config incomplete")
	}
	if _, err := (Config{UseTLS: true}).LoadTLSConfig(); err == nil {
		t.Fatal("expected error for missing cert paths")
	}
}
