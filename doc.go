/*
Go3Deploy publishes a generated static site to an S3 bucket.

Every run uploads the whole site (there is no local cache of what was sent
before). With delete enabled, objects under the configured remote path that
no longer exist locally are removed from the bucket; objects outside of the
remote path are never touched. The bucket is set up for website hosting
on the first push.

It can also mirror a bucket back to a local directory (pull). Pulling only
adds or overwrites local files, it never deletes any.

Options are read from _deploy.yml (see "go3deploy init"), then from the
command line and finally from the AWS_* environment variables.
*/
package main
