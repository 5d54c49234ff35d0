// Package oids collects the SNMP object identifiers used to probe printers,
// so callers avoid scattering raw dotted strings.
package oids

const (
	// --- MIB-II system group ---

	// SysDescr reports a human-readable system description string.
	SysDescr = "1.3.6.1.2.1.1.1.0"
	// SysName is the administratively assigned device name.
	SysName = "1.3.6.1.2.1.1.5.0"
)

const (
	// --- Printer MIB (RFC 3805) ---

	// PrtGeneralSerialNumber (prtGeneralSerialNumber.1) is the canonical serial.
	PrtGeneralSerialNumber = "1.3.6.1.2.1.43.5.1.1.17.1"
	// PrtMarkerLifeCount targets prtMarkerLifeCount.1 and is commonly treated as the page counter.
	PrtMarkerLifeCount = "1.3.6.1.2.1.43.10.2.1.4.1"

	// Supply table columns (Printer-MIB::prtMarkerSuppliesTable). Rows are
	// indexed by hrDeviceIndex.prtMarkerSuppliesIndex.
	PrtMarkerSuppliesDesc   = "1.3.6.1.2.1.43.11.1.1.6"
	PrtMarkerSuppliesMaxCap = "1.3.6.1.2.1.43.11.1.1.8"
	PrtMarkerSuppliesLevel  = "1.3.6.1.2.1.43.11.1.1.9"
)

// Identity lists the scalar OIDs fetched in a single GET during a probe.
func Identity() []string {
	return []string{SysDescr, SysName, PrtGeneralSerialNumber, PrtMarkerLifeCount}
}
