// Package usecase declares the circulation server's application services and
// their input and output types. Implementations live in usecase/impl.
package usecase
