package services

import "fmt"

// Tipos de erro de negócio. A camada HTTP mapeia cada tipo para um status:
// DecodeError/MissingColumnError/ValidationError -> 422, NotFoundError -> 404,
// ConflictError -> 409, UnauthorizedError -> 401, ForbiddenError -> 403.
// Não há retry automático: o operador corrige o arquivo e reenvia.

// DecodeError indica que nenhuma codificação conseguiu ler o arquivo.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string { return e.Msg }

// MissingColumnError indica que nenhum alias da coluna obrigatória foi
// encontrado no cabeçalho.
type MissingColumnError struct {
	Field string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("Coluna obrigatória não encontrada: %s.", e.Field)
}

// ValidationError indica upload vazio, nenhuma linha válida ou violação de
// regra de negócio.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError indica registro inexistente.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError indica RG/etiqueta duplicados ou conflito de alocação com a
// base 02.02.20.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// UnauthorizedError indica credenciais ou token inválidos.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string { return e.Msg }

// ForbiddenError indica usuário autenticado sem a permissão necessária.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string { return e.Msg }
