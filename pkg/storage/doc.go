// Package storage provides persistent storage functionality for the WhatTheFridge catalog.
// It uses BadgerDB as the embedded database and stores values as JSON under prefixed keys.
package storage
