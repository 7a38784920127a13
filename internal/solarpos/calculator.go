// Package solarpos computes sunrise and sunset times using the NOAA
// solar position method, with a terrain elevation correction for the
// apparent horizon dip.
package solarpos

import "math"

// Invalid is returned when a location has no sunrise or sunset on the
// requested date (polar day or polar night).
const Invalid = -9999.0

// solarDepression is the standard sun depression angle below the
// horizon at rise/set, accounting for atmospheric refraction (degrees).
const solarDepression = 0.833

const degToRad = math.Pi / 180.0
const radToDeg = 180.0 / math.Pi

// DayKind classifies a date/location with respect to sunrise/sunset.
type DayKind int

const (
	// DayNormal means the sun both rises and sets.
	DayNormal DayKind = iota
	// DayPolarNight means the sun never rises.
	DayPolarNight
	// DayPolarDay means the sun never sets.
	DayPolarDay
)

// Calculator computes sunrise and sunset times for a fixed timezone
// offset. It holds no other state and is safe for concurrent use from
// any number of goroutines.
type Calculator struct {
	timezoneOffset float64
}

// NewCalculator returns a Calculator for the given timezone offset from
// UTC in hours (e.g. 1.0 for CET).
func NewCalculator(timezoneOffset float64) Calculator {
	return Calculator{timezoneOffset: timezoneOffset}
}

// Sunrise returns the local sunrise time in decimal hours [0,24), or
// Invalid if the sun does not rise on that date at that location.
func (c Calculator) Sunrise(latitude, longitude, elevation float64, year, month, day int) float64 {
	return c.solarTime(latitude, longitude, elevation, year, month, day, true)
}

// Sunset returns the local sunset time in decimal hours [0,24), or
// Invalid if the sun does not set on that date at that location.
func (c Calculator) Sunset(latitude, longitude, elevation float64, year, month, day int) float64 {
	return c.solarTime(latitude, longitude, elevation, year, month, day, false)
}

// Classify reports whether the sun rises and sets normally on the given
// date, or whether the location is in polar day or polar night. Callers
// that only need the combined invalid case can rely on Sunrise/Sunset
// returning Invalid for both polar kinds.
func (c Calculator) Classify(latitude, elevation float64, year, month, day int) DayKind {
	t := julianCentury(julianDay(year, month, day))
	_, kind := hourAngleSunrise(latitude, sunDeclination(t), elevation)
	return kind
}

func (c Calculator) solarTime(latitude, longitude, elevation float64, year, month, day int, isSunrise bool) float64 {
	t := julianCentury(julianDay(year, month, day))

	eqTime := equationOfTime(t)
	declination := sunDeclination(t)
	ha, kind := hourAngleSunrise(latitude, declination, elevation)
	if kind != DayNormal {
		return Invalid
	}

	// Solar noon in UTC hours, then offset by +/- the hour angle
	// expressed in time (4 minutes per degree).
	solarNoon := (720.0 - 4.0*longitude - eqTime) / 60.0

	var solarTime float64
	if isSunrise {
		solarTime = solarNoon - ha*4.0/60.0
	} else {
		solarTime = solarNoon + ha*4.0/60.0
	}

	solarTime += c.timezoneOffset

	for solarTime < 0.0 {
		solarTime += 24.0
	}
	for solarTime >= 24.0 {
		solarTime -= 24.0
	}

	return solarTime
}

// julianDay converts a Gregorian calendar date to a Julian day number,
// using the standard civil conversion with the Gregorian correction.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + float64(b) - 1524.5
}

func julianCentury(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

// sunGeomMeanLongitude returns the geometric mean longitude of the sun
// in degrees, normalized to [0,360).
func sunGeomMeanLongitude(t float64) float64 {
	l0 := 280.46646 + t*(36000.76983+t*0.0003032)
	for l0 > 360.0 {
		l0 -= 360.0
	}
	for l0 < 0.0 {
		l0 += 360.0
	}
	return l0
}

func sunGeomMeanAnomaly(t float64) float64 {
	return 357.52911 + t*(35999.05029-0.0001537*t)
}

func earthOrbitEccentricity(t float64) float64 {
	return 0.016708634 - t*(0.000042037+0.0000001267*t)
}

func sunEquationOfCenter(t float64) float64 {
	mrad := sunGeomMeanAnomaly(t) * degToRad

	return math.Sin(mrad)*(1.914602-t*(0.004817+0.000014*t)) +
		math.Sin(2.0*mrad)*(0.019993-0.000101*t) +
		math.Sin(3.0*mrad)*0.000289
}

func sunTrueLongitude(t float64) float64 {
	return sunGeomMeanLongitude(t) + sunEquationOfCenter(t)
}

func sunApparentLongitude(t float64) float64 {
	o := sunTrueLongitude(t)
	return o - 0.00569 - 0.00478*math.Sin((125.04-1934.136*t)*degToRad)
}

func meanObliquityOfEcliptic(t float64) float64 {
	return 23.0 + (26.0+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60.0)/60.0
}

func obliquityCorrection(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return meanObliquityOfEcliptic(t) + 0.00256*math.Cos(omega*degToRad)
}

// sunDeclination returns the sun's declination in degrees.
func sunDeclination(t float64) float64 {
	sint := math.Sin(obliquityCorrection(t)*degToRad) * math.Sin(sunApparentLongitude(t)*degToRad)
	return math.Asin(sint) * radToDeg
}

// equationOfTime returns the difference between mean and true solar
// time in minutes.
func equationOfTime(t float64) float64 {
	epsilon := obliquityCorrection(t)
	l0 := sunGeomMeanLongitude(t)
	e := earthOrbitEccentricity(t)
	m := sunGeomMeanAnomaly(t)

	y := math.Tan((epsilon / 2.0) * degToRad)
	y *= y

	sin2l0 := math.Sin(2.0 * l0 * degToRad)
	sinm := math.Sin(m * degToRad)
	cos2l0 := math.Cos(2.0 * l0 * degToRad)
	sin4l0 := math.Sin(4.0 * l0 * degToRad)
	sin2m := math.Sin(2.0 * m * degToRad)

	etime := y*sin2l0 - 2.0*e*sinm + 4.0*e*y*sinm*cos2l0 -
		0.5*y*y*sin4l0 - 1.25*e*e*sin2m

	return 4.0 * etime * radToDeg
}

// hourAngleSunrise returns the hour angle at sunrise in degrees, or a
// non-normal DayKind when the sun stays below or above the horizon all
// day. The zenith combines the fixed depression angle with an
// elevation-dependent refraction correction of -2.076*sqrt(m)/60
// degrees.
func hourAngleSunrise(latitude, declination, elevation float64) (float64, DayKind) {
	latRad := latitude * degToRad
	declRad := declination * degToRad

	if elevation < 0 {
		elevation = 0
	}
	correction := -2.076 * math.Sqrt(elevation) / 60.0
	zenith := 90.0 + solarDepression + correction

	cosHA := math.Cos(zenith*degToRad)/(math.Cos(latRad)*math.Cos(declRad)) -
		math.Tan(latRad)*math.Tan(declRad)

	if cosHA > 1.0 {
		return 0, DayPolarNight
	}
	if cosHA < -1.0 {
		return 0, DayPolarDay
	}

	return math.Acos(cosHA) * radToDeg, DayNormal
}
