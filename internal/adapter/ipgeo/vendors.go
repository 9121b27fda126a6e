package ipgeo

import (
	"fmt"

	"github.com/couchcryptid/location-estimator/internal/domain"
)

// Built-in vendor definitions. Three independent free services so a single
// vendor outage or throttle never takes out the whole IP tier. Accuracy
// radii are optional in every payload; zero means "vendor didn't say".

// IPAPI is the ip-api.com vendor.
func IPAPI() Vendor {
	return Vendor{
		Name:   "ip-api.com",
		URL:    "http://ip-api.com/json/?fields=status,message,lat,lon,accuracy",
		Decode: decodeIPAPI,
	}
}

// IPAPICo is the ipapi.co vendor.
func IPAPICo() Vendor {
	return Vendor{
		Name:   "ipapi.co",
		URL:    "https://ipapi.co/json/",
		Decode: decodeIPAPICo,
	}
}

// IPWhoIs is the ipwho.is vendor.
func IPWhoIs() Vendor {
	return Vendor{
		Name:   "ipwho.is",
		URL:    "https://ipwho.is/",
		Decode: decodeIPWhoIs,
	}
}

// DefaultVendors returns the built-in vendor set in priority-free order;
// the race coordinator treats them as peers.
func DefaultVendors() []Vendor {
	return []Vendor{IPAPI(), IPAPICo(), IPWhoIs()}
}

type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy"`
}

func decodeIPAPI(body []byte) (domain.Coordinates, float64, error) {
	var r ipAPIResponse
	if err := decodeJSON(body, &r); err != nil {
		return domain.Coordinates{}, 0, err
	}
	// ip-api reports failures in-band with HTTP 200.
	if r.Status != "success" {
		return domain.Coordinates{}, 0, fmt.Errorf("vendor status %q: %s", r.Status, r.Message)
	}
	return domain.Coordinates{Lat: r.Lat, Lng: r.Lon}, r.Accuracy, nil
}

type ipAPICoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

func decodeIPAPICo(body []byte) (domain.Coordinates, float64, error) {
	var r ipAPICoResponse
	if err := decodeJSON(body, &r); err != nil {
		return domain.Coordinates{}, 0, err
	}
	if r.Error {
		return domain.Coordinates{}, 0, fmt.Errorf("vendor error: %s", r.Reason)
	}
	return domain.Coordinates{Lat: r.Latitude, Lng: r.Longitude}, r.Accuracy, nil
}

type ipWhoIsResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

func decodeIPWhoIs(body []byte) (domain.Coordinates, float64, error) {
	var r ipWhoIsResponse
	if err := decodeJSON(body, &r); err != nil {
		return domain.Coordinates{}, 0, err
	}
	if !r.Success {
		return domain.Coordinates{}, 0, fmt.Errorf("vendor error: %s", r.Message)
	}
	return domain.Coordinates{Lat: r.Latitude, Lng: r.Longitude}, r.Accuracy, nil
}
