// Package file persists files decoded by pkg/formdata.
//
// Storage has two implementations. LocalStorage writes below a base directory
// and rejects keys that escape it. S3Storage uploads to a bucket through
// aws-sdk-go-v2 and works with S3 compatible services via Endpoint and
// ForcePathStyle.
//
//	store, err := file.NewLocalStorage("./uploads", "/uploads/")
//	if err != nil {
//		return err
//	}
//	for _, f := range form.Files("attachments") {
//		stored, err := store.Save(ctx, f, file.ObjectKey("attachments", f))
//		if err != nil {
//			return err
//		}
//		log.Info("saved", "url", store.URL(stored.Key))
//	}
//
// Client supplied names are never trusted: SanitizeFilename strips path
// components and ObjectKey generates UUID based keys. DetectMIMEType sniffs the
// content and only falls back to the declared part type for generic results.
//
// S3 failures are classified into sentinels (ErrFileNotFound,
// ErrBucketNotFound, ErrAccessDenied, ErrServiceUnavailable, ...) so callers
// can branch with errors.Is.
package file
