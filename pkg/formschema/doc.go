// Package formschema loads named form schemas from YAML.
//
// A registry maps form names to a *formdata.Schema and a strict flag, so HTTP
// routes can pick the schema by URL parameter:
//
//	reg, err := formschema.Load("forms.yaml")
//	if err != nil {
//		return err
//	}
//	f, ok := reg.Lookup(chi.URLParam(r, "form"))
//	if !ok {
//		http.NotFound(w, r)
//		return
//	}
//	form, err := formdata.FromRequest(r, f.Schema, f.Options()...)
//
// Field sizes accept byte units (B, KB, MB, GB, KiB, MiB, GiB) or "unlimited";
// an omitted max_size uses the decoder default for the field type. Cardinality
// defaults to required.
package formschema
