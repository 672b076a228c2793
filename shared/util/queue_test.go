package util

import "testing"

func TestUniqueQueueSubstituiValorDaMesmaChave(t *testing.T) {
	q := NewUniqueQueue[int, string]()

	if !q.Enqueue(1, "a") {
		t.Error("primeira inserção deveria ser nova")
	}
	if q.Enqueue(1, "b") {
		t.Error("chave repetida deveria só atualizar o valor")
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}

	k, v, ok := q.Dequeue()
	if !ok || k != 1 || v != "b" {
		t.Errorf("dequeue = (%d, %q, %v), want (1, \"b\", true)", k, v, ok)
	}
	if _, _, ok := q.Dequeue(); ok {
		t.Error("fila vazia não deveria entregar item")
	}
}

func TestUniqueQueuePreservaOrdemDeChegada(t *testing.T) {
	q := NewUniqueQueue[string, int]()
	q.Enqueue("x", 1)
	q.Enqueue("y", 2)
	q.Enqueue("x", 3) // atualização não muda a posição

	k, v, _ := q.Dequeue()
	if k != "x" || v != 3 {
		t.Errorf("primeiro = (%q, %d), want (\"x\", 3)", k, v)
	}
	k, _, _ = q.Dequeue()
	if k != "y" {
		t.Errorf("segundo = %q, want \"y\"", k)
	}

	q.Enqueue("z", 4)
	if !q.Contains("z") {
		t.Error("Contains deveria enxergar a chave enfileirada")
	}
	q.Clear()
	if q.Len() != 0 || q.Contains("z") {
		t.Error("Clear deveria esvaziar fila e índice de chaves")
	}
}
