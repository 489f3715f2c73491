// Package domain models Niwot Ridge snow water equivalent (SWE) survey data.
//
// # Data Source
//
// Observations come from the Niwot Ridge LTER "snowateq" snow survey table
// (knb-lter-nwt.96), a single CSV with one row per sample. Rows are loaded by
// the csvsource adapter as [RawRecord] values with every cell kept as text,
// then cleaned into an ordered [RecordStore] by [Clean].
//
// Columns used:
//
//	date        calendar date of the survey, e.g. "1997-04-02"
//	local_site  site identifier, e.g. "saddle", "gl4", "tower meadow"
//	samp_loc    sample location within the site
//	loc_code    sample location code
//	swe         snow water equivalent in meters, empty when not measured
//
// Any other columns are carried in [RawRecord.Other] and only matter for the
// "whole row is empty" check.
//
// # Missing Values
//
// A cell is missing when it is empty after trimming or is one of the
// pandas-style NA markers listed in [MissingMarkers]. Rows whose swe is
// missing are dropped, which also drops any site that never reports swe.
//
// # Ordering
//
// The store is sorted by (date, site) with missing dates and missing sites
// last. Ties keep source row order, so cleaning is deterministic and
// re-applying [Normalize] to its own output is a no-op.
//
// # Site Enumeration
//
// [RecordStore.SiteNames] lists unique site identifiers in order of first
// appearance and always drops the final entry. Upstream exports end with a
// trailing non-site category, and the modeled site list has always excluded
// it. The rule is positional on purpose: the last entry is dropped whatever
// its content.
//
// Site cells are trimmed before comparison, so " Saddle" and "Saddle" are
// one site and count once toward the enumeration. Case and separators are
// kept: "saddle" is a distinct identifier, though it shares catalog
// metadata with "Saddle".
//
// # Periods
//
// Yearly series cover 1993 through 2020 inclusive and monthly series cover
// months 1 through 12. Every period gets exactly one point; a period with no
// observations has a NaN mean.
package domain
