// Package spss decodes SPSS system files (.sav).
//
// The decoder understands what statistical offices publish yearly microdata
// in: the $FL2 header in either byte order, variable records with long
// string continuations, variable labels, user-missing values (discrete and
// ranges), value labels, documents, and the extension records for long
// variable names and the character encoding. Case data may be uncompressed
// or bytecode compressed.
//
// Zlib compressed files ($FL3) are rejected with ErrUnsupportedCompression.
// Very long strings (width over 255, extension record 14) are not
// reassembled; each 255-byte segment is read as its own variable.
//
// Example usage:
//
//	file, err := spss.ReadFile("hechos_transito_2019.sav")
//	if err != nil {
//	    return err
//	}
//	table := file.Table()
package spss
