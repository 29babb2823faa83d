// Package minio stores index snapshots on MinIO or any other
// S3-compatible server (Ceph, Garage, SeaweedFS) through the MinIO client.
//
//	store, err := minio.Dial("localhost:9000", minio.Credentials{
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "indexes", "products")
//	if err != nil { ... }
//	err = persistence.Save(ctx, store, "index.vmn", idx)
package minio
