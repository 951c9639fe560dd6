package goavsc

// Package goavsc provides:
//
// - Parsing of Avro-style schema documents (JSON or YAML) into a typed, possibly cyclic schema graph
// - A Names registry implementing fullname resolution against a default namespace
// - Serialization back to JSON with short references and pruned namespaces
// - Parsing Canonical Form and fingerprints (CRC-64-AVRO, SHA-256)
// - A stable error model via Issues (JSON Pointer, code, message)
//
// Design policy:
// - Keep only public APIs in the root package; put token-level details under internal/.
// - Place input drivers under source/ and the CLI under cmd/goavsc.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  s, err := goavsc.Parse(`{"type":"record","name":"User","fields":[{"name":"id","type":"long"}]}`)
//  rec := s.(*goavsc.Record)
//  out, err := goavsc.Marshal(s)
//  fp, err := goavsc.Fingerprint64(s)
//
