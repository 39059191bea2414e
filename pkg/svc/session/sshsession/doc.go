// Package sshsession implements the remote execution session over SSH, the
// transport used for real fleets. Commands run without a pseudo-terminal;
// file uploads go over SFTP on the same connection.
package sshsession
