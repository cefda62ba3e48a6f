package fleet

import "testing"

func TestNewVehicle(t *testing.T) {
	v, err := NewVehicle("Van-05", "MH12AB1234", 500)
	if err != nil {
		t.Fatalf("new vehicle: %v", err)
	}
	if v.Status != VehicleAvailable {
		t.Fatalf("expected available got %s", v.Status)
	}
	if !v.CanCarry(500) || !v.CanCarry(1) {
		t.Fatalf("capacity 500 must carry up to 500")
	}
	if v.CanCarry(501) {
		t.Fatalf("capacity 500 must not carry 501")
	}
}

func TestVehicleValidate(t *testing.T) {
	cases := []struct {
		name    string
		vehicle Vehicle
	}{
		{"empty name", Vehicle{Plate: "P", MaxLoadKg: 10, Status: VehicleAvailable}},
		{"empty plate", Vehicle{Name: "N", MaxLoadKg: 10, Status: VehicleAvailable}},
		{"zero capacity", Vehicle{Name: "N", Plate: "P", Status: VehicleAvailable}},
		{"negative capacity", Vehicle{Name: "N", Plate: "P", MaxLoadKg: -1, Status: VehicleAvailable}},
		{"bogus status", Vehicle{Name: "N", Plate: "P", MaxLoadKg: 10, Status: "parked"}},
	}
	for _, c := range cases {
		if err := c.vehicle.Validate(); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestVehicleRetired(t *testing.T) {
	v := Vehicle{Name: "N", Plate: "P", MaxLoadKg: 10, Status: VehicleMaintenance}
	if !v.Retired() {
		t.Fatalf("maintenance vehicle must read as retired")
	}
	v.Status = VehicleAssigned
	if v.Retired() {
		t.Fatalf("assigned vehicle is not retired")
	}
}
