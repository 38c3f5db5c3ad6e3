/*
Package config loads the store configuration from a YAML file, a .env file
and the environment.

	backend: dynamodb
	table: records
	containers:
	  photos: photo-records
	aws:
	  region: us-east-1
	log_level: info

Environment variables override the file: RECORDSTORE_BACKEND,
RECORDSTORE_TABLE, RECORDSTORE_ENDPOINT, RECORDSTORE_LOG_LEVEL,
RECORDSTORE_USER, AWS_REGION, AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
*/
package config
