// Package source provides types and utilities for loading and validating
// datasource definitions. A datasource names the ADE source system and
// source entity a file belongs to, the shape parameters of the manifests
// opened for it, and the per-source behavior of the assembler.
//
// # Datasource Format
//
// Datasource files can be written in YAML or JSON, either as a bare list
// or under a top-level sources key:
//
//	sources:
//	  - id: erp-orders
//	    attributes:
//	      ade_source_system: erp
//	      ade_source_entity: orders
//	      path_replace: "s3://landing/"
//	      path_replace_with: "s3://archive/"
//	      batch_from_file_path_regex: "(\\d{4})/(\\d{2})/(\\d{2})"
//	      max_files_in_manifest: 100
//	    manifest_parameters:
//	      format: CSV
//	      delim: SEMICOLON
//	      skiph: 1
//
// Optional attributes and parameters that are left out keep the feature
// disabled or the remote default in place.
//
// # Usage
//
//	loader := source.NewLoader(afero.NewOsFs())
//	sources, err := loader.Load("sources.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ds, err := sources.Get("erp-orders")
//
// # Error Handling
//
// Validation failures are reported as *domain.ConfigurationError. The
// loader adds sentinel errors for file-level failures:
//   - ErrNoSources: file has no datasources
//   - ErrDuplicateID: two datasources share an id
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: datasource file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package source
