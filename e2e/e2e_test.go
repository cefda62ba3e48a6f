package e2e

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ananya-001/FleetFlow/core/dispatch"
	"github.com/ananya-001/FleetFlow/core/fleet"
	"github.com/ananya-001/FleetFlow/infra/logger"
	"github.com/ananya-001/FleetFlow/infra/memstore"
	"github.com/ananya-001/FleetFlow/infra/metrics"
	"github.com/ananya-001/FleetFlow/infra/notify"
)

const (
	influxOrg    = "fleet_org"
	influxBucket = "fleet_bucket"
	influxToken  = "e2e-token"
)

// junitReport is a minimal representation of a JUnit XML report. The e2e
// suite writes one so CI systems can display the results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts a bootstrapped InfluxDB 2.7 container and returns it
// with the base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a Mosquitto broker that accepts anonymous clients.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

type receivedMsg struct {
	topic   string
	payload []byte
}

// Test_E2E_DispatchFlow drives one trip through submit, assign, dispatch and
// complete against real brokers: transition notifications must reach an MQTT
// subscriber and transition points must land in InfluxDB.
func Test_E2E_DispatchFlow(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mqttCont, mqttURL := startMosquitto(ctx, t)
	if mqttCont != nil {
		defer mqttCont.Terminate(ctx) //nolint:errcheck
	}
	influxCont, influxURL := startInflux(ctx, t)
	if influxCont != nil {
		defer influxCont.Terminate(ctx) //nolint:errcheck
	}
	t.Logf("mosquitto at %s, influx at %s", mqttURL, influxURL)

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	if err := cli.EnsureBucket(ctx); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}

	// Observer subscribed before the engine publishes anything.
	msgs := make(chan receivedMsg, 16)
	obsOpts := paho.NewClientOptions().AddBroker(mqttURL).SetClientID("e2e-observer")
	observer := paho.NewClient(obsOpts)
	if tok := observer.Connect(); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		t.Fatalf("observer connect: %v", tok.Error())
	}
	defer observer.Disconnect(250)
	if tok := observer.Subscribe("fleet/trips/#", 1, func(_ paho.Client, m paho.Message) {
		msgs <- receivedMsg{topic: m.Topic(), payload: m.Payload()}
	}); !tok.WaitTimeout(10*time.Second) || tok.Error() != nil {
		t.Fatalf("observer subscribe: %v", tok.Error())
	}

	notifier, err := notify.NewMQTTNotifier(notify.Config{
		Broker:      mqttURL,
		ClientID:    "e2e-engine",
		TopicPrefix: "fleet/trips",
		QoS:         1,
	})
	if err != nil {
		t.Fatalf("notifier: %v", err)
	}
	defer notifier.Close()

	sink := metrics.NewInfluxSinkWithFallback(influxURL, influxToken, influxOrg, influxBucket)
	if _, ok := sink.(*metrics.InfluxSink); !ok {
		t.Fatalf("influx sink fell back to %T", sink)
	}

	st := memstore.New()
	eng, err := dispatch.NewEngine(st, logger.New("e2e"), sink, nil, nil, notifier)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	defer eng.Close()

	veh, err := fleet.NewVehicle("Van-05", "MH12AB1234", 500)
	if err != nil {
		t.Fatal(err)
	}
	if veh, err = st.CreateVehicle(ctx, veh); err != nil {
		t.Fatal(err)
	}
	drv, err := fleet.NewDriver("Alex", "DL1234567", time.Now().AddDate(1, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if drv, err = st.CreateDriver(ctx, drv); err != nil {
		t.Fatal(err)
	}

	trip, err := eng.SubmitRequest(ctx, fleet.TripRequest{
		VehicleID: veh.ID,
		DriverID:  drv.ID,
		CargoKg:   450,
		StartDate: time.Now().AddDate(0, 0, 7),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err = eng.Assign(ctx, trip.ID, "e2e"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err = eng.Dispatch(ctx, trip.ID, "e2e"); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err = eng.Complete(ctx, trip.ID, "e2e"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	wantTopic := fmt.Sprintf("fleet/trips/%s/status", trip.ID)
	statuses := make([]string, 0, 3)
	deadline := time.After(15 * time.Second)
	for len(statuses) < 3 {
		select {
		case m := <-msgs:
			if m.topic != wantTopic {
				t.Fatalf("topic = %s, want %s", m.topic, wantTopic)
			}
			var body struct {
				TripID string `json:"trip_id"`
				To     string `json:"to"`
				Actor  string `json:"actor"`
			}
			if err := json.Unmarshal(m.payload, &body); err != nil {
				t.Fatalf("payload: %v", err)
			}
			if body.TripID != trip.ID || body.Actor != "e2e" {
				t.Fatalf("payload = %+v", body)
			}
			statuses = append(statuses, body.To)
		case <-deadline:
			t.Fatalf("got %d notifications, want 3", len(statuses))
		}
	}
	want := []string{"assigned", "dispatched", "completed"}
	for i, s := range statuses {
		if s != want[i] {
			t.Fatalf("notification %d = %s, want %s", i, s, want[i])
		}
	}

	// Influx writes are blocking, but give the storage engine a moment to
	// make them queryable.
	flux := fmt.Sprintf(
		`from(bucket:"%s") |> range(start:-5m) |> filter(fn: (r) => r._measurement == "trip_transition" and r._field == "attempts")`,
		influxBucket)
	points := 0
	for attempt := 0; attempt < 10; attempt++ {
		res, err := cli.Query(ctx, flux)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		points = 0
		for res.Next() {
			points++
		}
		res.Close()
		if points >= 3 {
			break
		}
		time.Sleep(time.Second)
	}
	if points < 3 {
		t.Fatalf("influx has %d transition points, want 3", points)
	}

	dir := t.TempDir()
	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: "Test_E2E_DispatchFlow", Time: 0}}}
	if err := writeJUnit(filepath.Join(dir, "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
