// Package domain models bike-share station status data and the dock health
// classification derived from it.
//
// # Data Source
//
// Station status comes from the Citi Bike style "stations/json" feed, e.g.
// http://citibikenyc.com/stations/json. The envelope carries an
// executionTime and a stationBeanList:
//
//	{
//	  "executionTime": "2020-12-16 10:04:20 AM",
//	  "stationBeanList": [
//	    {"id": 72, "stationName": "W 52 St & 11 Ave", "totalDocks": 39, "availableDocks": 12, ...}
//	  ]
//	}
//
// Only executionTime, stationBeanList, totalDocks and availableDocks are
// required. Everything else is carried through for downstream consumers, and
// a value of the wrong JSON type there is dropped rather than rejected. Dock
// counts may be any integral JSON number (20 or 20.0); a fractional or
// non-numeric count is a SchemaError raised during enrichment.
//
// # Broken Docks
//
// availableDocks is assumed to already include docks holding an available
// bike, so the non-functional dock count is:
//
//	brokenDocks = totalDocks - availableDocks
//
// The value is not clamped. Inconsistent upstream data (availableDocks >
// totalDocks) yields a negative count, which classifies as green.
//
// # Severity Classes
//
//	green   brokenDocks <= 10
//	yellow  10 < brokenDocks < 30
//	red     brokenDocks >= 30
//
// # Run Date
//
// The date of a run is the first whitespace-delimited token of executionTime
// ("2020-12-16 10:04:20 AM" -> "2020-12-16"). It is kept as text and never
// reparsed; the history table stores it verbatim.
package domain
