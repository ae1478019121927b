package api

// Response is the envelope of an Al Adhan timings response.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds the timings, date info and metadata of one day.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings are local wall-clock "HH:MM" strings. The API sometimes appends a
// zone suffix such as " (WIB)".
type Timings struct {
	Imsak   string `json:"Imsak"`
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Sunset  string `json:"Sunset"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

type DateInfo struct {
	Readable  string        `json:"readable"`
	Timestamp string        `json:"timestamp"`
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

// HijriDate is the Islamic calendar date of the response day.
type HijriDate struct {
	Date        string           `json:"date"` // e.g. "10-09-1447"
	Day         string           `json:"day"`
	Month       HijriMonth       `json:"month"`
	Year        string           `json:"year"`
	Designation HijriDesignation `json:"designation"`
}

type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"` // e.g. "Ramaḍān"
	Ar     string `json:"ar"`
}

type HijriDesignation struct {
	Abbreviated string `json:"abbreviated"` // "AH"
	Expanded    string `json:"expanded"`
}

// Format returns the Hijri date as "DD MonthName YYYY AH", or "" when the
// response did not carry one.
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	abbr := h.Designation.Abbreviated
	if abbr == "" {
		abbr = "AH"
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " " + abbr
}

type GregorianDate struct {
	Date string `json:"date"` // "DD-MM-YYYY"
	Day  string `json:"day"`
	Year string `json:"year"`
}

// Meta describes where and how the timings were computed.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
	School    string     `json:"school"`
}

type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
