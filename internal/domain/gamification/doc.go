// Package gamification содержит доменную модель геймификации StudyPulse:
// уровни, стрики и достижения студента.
//
// Ключевые инварианты:
//   - Уровень всегда выводится из суммарного XP по формуле
//     floor(sqrt(xp/100)) + 1 и никогда не является
//     самостоятельным источником истины.
//   - На пару (студент, тип стрика) существует ровно одна запись Streak.
//   - На пару (студент, тип бейджа) существует максимум одно достижение:
//     повторная разблокировка — no-op без повторного начисления XP.
//
// Пакет не выполняет I/O: все операции — чистые функции и переходы
// состояний над сущностями. Персистентность описана интерфейсами
// репозиториев и реализована в infrastructure/persistence.
package gamification
